package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echo-gravitas/openhamclock/pkg/config"
	"github.com/echo-gravitas/openhamclock/pkg/protocol"
	"github.com/echo-gravitas/openhamclock/pkg/state"
)

// fakeSender records frames handed to the transport.
type fakeSender struct {
	mu   sync.Mutex
	sent [][]byte
	down bool
}

func (f *fakeSender) Send(frame []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return false
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.sent = append(f.sent, cp)
	return true
}

func (f *fakeSender) frames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, b := range f.sent {
		out = append(out, string(b))
	}
	return out
}

func newTestServer(t *testing.T, pttEnabled bool) (*Server, *state.Store, *fakeSender) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Radio.Brand = "yaesu"
	cfg.Radio.Model = "FT-991A"
	cfg.Radio.EnablePTT = pttEnabled
	cfg.ApplyDefaults()

	codec, err := protocol.New(cfg.Radio.Brand, 0)
	require.NoError(t, err)

	store := state.NewStore()
	sender := &fakeSender{}
	return NewServer(cfg, store, codec, sender, "1.0.0-test"), store, sender
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestInfoEndpoint(t *testing.T) {
	s, store, _ := newTestServer(t, false)
	store.SetConnected(true)

	w := doJSON(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "rig-bridge", body["name"])
	assert.Equal(t, "1.0.0-test", body["version"])
	assert.Equal(t, "Yaesu FT-991A", body["radio"])
	assert.Equal(t, true, body["connected"])
}

func TestStatusEndpoint(t *testing.T) {
	s, store, _ := newTestServer(t, false)
	store.SetConnected(true)
	store.SetFrequency(14074000)
	store.SetMode("USB", 2800)

	w := doJSON(t, s, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap state.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.True(t, snap.Connected)
	assert.Equal(t, int64(14074000), snap.Frequency)
	assert.Equal(t, "USB", snap.Mode)
	assert.Equal(t, 2800, snap.Width)
	assert.False(t, snap.PTT)
	assert.NotZero(t, snap.Timestamp)
}

func TestSetFrequency(t *testing.T) {
	t.Run("Valid Request Sends One Frame", func(t *testing.T) {
		s, _, sender := newTestServer(t, false)
		w := doJSON(t, s, http.MethodPost, "/freq", `{"freq": 14074000}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":true`)
		require.Equal(t, []string{"FA014074000;"}, sender.frames())
	})

	t.Run("Missing Freq Is 400", func(t *testing.T) {
		s, _, sender := newTestServer(t, false)
		w := doJSON(t, s, http.MethodPost, "/freq", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, sender.frames())
	})

	t.Run("Out Of Range Is 400 With No Send", func(t *testing.T) {
		s, _, sender := newTestServer(t, false)
		// 10 digits exceeds the 9-digit Yaesu dialect
		w := doJSON(t, s, http.MethodPost, "/freq", `{"freq": 1000000000}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, sender.frames())
	})

	t.Run("Unreachable Radio Reports Failure", func(t *testing.T) {
		s, _, sender := newTestServer(t, false)
		sender.down = true
		w := doJSON(t, s, http.MethodPost, "/freq", `{"freq": 14074000}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"success":false`)
	})
}

func TestSetMode(t *testing.T) {
	t.Run("Known Mode Sends Frame", func(t *testing.T) {
		s, _, sender := newTestServer(t, false)
		w := doJSON(t, s, http.MethodPost, "/mode", `{"mode": "USB"}`)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, []string{"MD02;"}, sender.frames())
	})

	t.Run("Unknown Mode Warns But Stays 200", func(t *testing.T) {
		s, _, sender := newTestServer(t, false)
		w := doJSON(t, s, http.MethodPost, "/mode", `{"mode": "TELEGRAPH"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "warning")
		assert.Empty(t, sender.frames())
	})

	t.Run("Missing Mode Is 400", func(t *testing.T) {
		s, _, _ := newTestServer(t, false)
		w := doJSON(t, s, http.MethodPost, "/mode", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSetPTT(t *testing.T) {
	t.Run("PTT On While Disabled Is 403 With No Send", func(t *testing.T) {
		s, _, sender := newTestServer(t, false)
		w := doJSON(t, s, http.MethodPost, "/ptt", `{"ptt": true}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "PTT disabled in configuration")
		assert.Empty(t, sender.frames())
	})

	t.Run("PTT Off While Disabled Is Allowed", func(t *testing.T) {
		s, _, sender := newTestServer(t, false)
		w := doJSON(t, s, http.MethodPost, "/ptt", `{"ptt": false}`)
		assert.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, []string{"TX0;"}, sender.frames())
	})

	t.Run("PTT On While Enabled Writes Exactly One Frame", func(t *testing.T) {
		s, _, sender := newTestServer(t, true)
		w := doJSON(t, s, http.MethodPost, "/ptt", `{"ptt": true}`)
		assert.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, []string{"TX1;"}, sender.frames())
	})

	t.Run("Missing PTT Is 400", func(t *testing.T) {
		s, _, _ := newTestServer(t, true)
		w := doJSON(t, s, http.MethodPost, "/ptt", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCORS(t *testing.T) {
	s, _, _ := newTestServer(t, false)

	w := doJSON(t, s, http.MethodGet, "/status", "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = doJSON(t, s, http.MethodOptions, "/freq", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

// readEvent pulls one "data: {...}" SSE event off the stream.
func readEvent(t *testing.T, r *bufio.Reader) map[string]interface{} {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		require.True(t, strings.HasPrefix(line, "data: "), "unexpected stream line %q", line)

		var event map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event))
		return event
	}
}

func TestStream(t *testing.T) {
	s, store, _ := newTestServer(t, false)
	store.SetConnected(true)
	store.SetFrequency(14074000)
	store.SetMode("USB", 2800)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	init := readEvent(t, reader)
	assert.Equal(t, "init", init["type"])
	assert.Equal(t, true, init["connected"])
	assert.Equal(t, float64(14074000), init["freq"])
	assert.Equal(t, "USB", init["mode"])

	// a redundant update must not reach the stream
	store.SetFrequency(14074000)
	store.SetFrequency(7074000)

	update := readEvent(t, reader)
	assert.Equal(t, "update", update["type"])
	assert.Equal(t, "freq", update["prop"])
	assert.Equal(t, float64(7074000), update["value"])

	// the next distinct change is the next event, nothing in between
	store.SetPTT(true)
	update = readEvent(t, reader)
	assert.Equal(t, "ptt", update["prop"])
	assert.Equal(t, true, update["value"])
}
