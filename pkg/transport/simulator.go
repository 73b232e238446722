package transport

import (
	"github.com/echo-gravitas/openhamclock/pkg/logging"
	"github.com/echo-gravitas/openhamclock/pkg/protocol"
	"github.com/echo-gravitas/openhamclock/pkg/state"
)

// Simulator stands in for a physical radio so the HTTP side can be
// exercised end to end without hardware. It seeds the state store
// with a representative FT8 frequency and accepts every command.
type Simulator struct {
	store *state.Store
}

func NewSimulator(store *state.Store) *Simulator {
	return &Simulator{store: store}
}

func (s *Simulator) Start() {
	s.store.SetFrequency(14074000)
	s.store.SetMode(protocol.ModeUSB, protocol.ModeWidth(protocol.ModeUSB))
	s.store.SetPTT(false)
	s.store.SetConnected(true)
	logging.Info("transport", "simulator active, no radio attached")
}

func (s *Simulator) Stop() {
	s.store.SetConnected(false)
}

// Send accepts and discards the frame. The simulator is always
// "reachable".
func (s *Simulator) Send(frame []byte) bool {
	logging.Debugf("transport", "simulator dropping command frame (% X)", frame)
	return true
}
