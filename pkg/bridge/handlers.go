package bridge

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/echo-gravitas/openhamclock/pkg/logging"
)

// handleInfo is the liveness/info endpoint.
func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":      "rig-bridge",
		"version":   s.version,
		"connected": s.store.Snapshot().Connected,
		"radio":     s.cfg.RadioName(),
	})
}

// handleStatus returns the point-in-time radio state snapshot.
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Snapshot())
}

// handleStream is the push-stream endpoint: one init event carrying
// the full snapshot, then one update event per changed field, until
// the client goes away.
func (s *Server) handleStream(c *gin.Context) {
	ch, cancel := s.store.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	snap := s.store.Snapshot()
	init := gin.H{
		"type":      "init",
		"connected": snap.Connected,
		"freq":      snap.Frequency,
		"mode":      snap.Mode,
		"width":     snap.Width,
		"ptt":       snap.PTT,
	}
	if err := writeEvent(c.Writer, init); err != nil {
		return
	}
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case change, ok := <-ch:
			if !ok {
				return
			}
			event := gin.H{"type": "update", "prop": change.Prop, "value": change.Value}
			if err := writeEvent(c.Writer, event); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

func writeEvent(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// handleSetFrequency drives codec encode plus transport send.
func (s *Server) handleSetFrequency(c *gin.Context) {
	var req struct {
		Freq *int64 `json:"freq"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Freq == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "freq is required"})
		return
	}

	frame, ok := s.codec.EncodeFrequency(*req.Freq)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("frequency %d Hz is not representable by this radio", *req.Freq),
		})
		return
	}

	if !s.transport.Send(frame) {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "radio not connected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleSetMode tolerates unknown labels: the command is dropped with
// a warning rather than an error, since vendor mode tables differ.
func (s *Server) handleSetMode(c *gin.Context) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Mode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode is required"})
		return
	}

	frame, ok := s.codec.EncodeMode(req.Mode)
	if !ok {
		logging.Warnf("bridge", "unrecognized mode %q requested", req.Mode)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"warning": fmt.Sprintf("mode %q not recognized for this radio", req.Mode),
		})
		return
	}

	if !s.transport.Send(frame) {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "radio not connected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleSetPTT rejects a transmit request outright when PTT is
// disabled in the configuration, regardless of transport state.
func (s *Server) handleSetPTT(c *gin.Context) {
	var req struct {
		PTT *bool `json:"ptt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.PTT == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ptt is required"})
		return
	}

	if *req.PTT && !s.cfg.Radio.EnablePTT {
		c.JSON(http.StatusForbidden, gin.H{"error": "PTT disabled in configuration"})
		return
	}

	if !s.transport.Send(s.codec.EncodePTT(*req.PTT)) {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "radio not connected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
