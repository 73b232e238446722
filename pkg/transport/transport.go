// Package transport owns the physical radio connection: it drives the
// poll cycle, feeds received bytes to the active codec, applies decoded
// frames to the state store and supervises reconnection.
package transport

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/echo-gravitas/openhamclock/pkg/config"
	"github.com/echo-gravitas/openhamclock/pkg/logging"
	"github.com/echo-gravitas/openhamclock/pkg/protocol"
	"github.com/echo-gravitas/openhamclock/pkg/state"
)

// Transport is the outward contract shared by the serial manager and
// the simulator.
type Transport interface {
	Start()
	Stop()

	// Send writes one raw command frame. It returns false when the
	// device is unreachable; the command is dropped, never queued.
	Send(frame []byte) bool
}

// Port is the slice of a serial device the manager needs. Tests
// substitute in-memory pipes.
type Port interface {
	io.ReadWriteCloser
}

// OpenFunc opens the underlying device.
type OpenFunc func() (Port, error)

const (
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultReconnectDelay = 5 * time.Second
)

// Options configures a Manager. Zero values select the defaults; Open
// is required.
type Options struct {
	Open           OpenFunc
	PollInterval   time.Duration
	ReconnectDelay time.Duration
}

// Manager runs the Closed -> Opening -> Open(Polling) cycle for one
// serial device. A read error closes the session and schedules a
// reopen after a fixed delay, indefinitely; a disconnected radio is
// expected to come back whenever a human replugs it.
type Manager struct {
	codec protocol.Codec
	store *state.Store
	open  OpenFunc

	pollInterval   time.Duration
	reconnectDelay time.Duration

	mu   sync.Mutex
	port Port

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewManager(codec protocol.Codec, store *state.Store, opts Options) *Manager {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	return &Manager{
		codec:          codec,
		store:          store,
		open:           opts.Open,
		pollInterval:   opts.PollInterval,
		reconnectDelay: opts.ReconnectDelay,
		stop:           make(chan struct{}),
	}
}

// OpenSerial returns the production opener for the configured device.
func OpenSerial(cfg *config.Config) OpenFunc {
	mode := &serial.Mode{
		BaudRate: cfg.Radio.BaudRate,
		DataBits: cfg.Radio.DataBits,
	}

	switch cfg.Radio.Parity {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		mode.Parity = serial.NoParity
	}

	if cfg.Radio.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	} else {
		mode.StopBits = serial.OneStopBit
	}

	device := cfg.Radio.Device
	return func() (Port, error) {
		port, err := serial.Open(device, mode)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", device, err)
		}
		return port, nil
	}
}

// Start launches the connection supervisor.
func (m *Manager) Start() {
	m.wg.Add(1)
	go m.run()
}

// Stop shuts the manager down, closing the device if open. It blocks
// until the supervisor goroutine has exited, so the OS handle is
// released deterministically.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })

	// closing the port unblocks the pending read
	m.mu.Lock()
	if m.port != nil {
		m.port.Close()
	}
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *Manager) run() {
	defer m.wg.Done()

	for {
		port, err := m.open()
		if err != nil {
			logging.Warnf("transport", "open failed: %v (retrying in %s)", err, m.reconnectDelay)
		} else {
			m.setPort(port)
			select {
			case <-m.stop:
				m.setPort(nil)
				port.Close()
				return
			default:
			}
			m.store.SetConnected(true)
			logging.Info("transport", "radio connection open")

			m.session(port)

			m.setPort(nil)
			port.Close()
			m.store.SetConnected(false)
			logging.Infof("transport", "radio connection lost (reopening in %s)", m.reconnectDelay)
		}

		select {
		case <-m.stop:
			return
		case <-time.After(m.reconnectDelay):
		}
	}
}

// session polls and reads until the device errors out or the manager
// stops. The read side is authoritative for detecting device loss.
func (m *Manager) session(port Port) {
	done := make(chan struct{})
	defer close(done)

	m.wg.Add(1)
	go m.pollLoop(port, done)

	buf := make([]byte, 256)
	for {
		n, err := port.Read(buf)
		if err != nil {
			logging.Debugf("transport", "read error: %v", err)
			return
		}
		if n == 0 {
			continue
		}
		m.apply(m.codec.Decode(buf[:n]))
	}
}

// pollLoop writes the codec's read requests once per tick. Write
// failures are logged only; the read side decides when the session is
// over.
func (m *Manager) pollLoop(port Port, done <-chan struct{}) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-m.stop:
			return
		case <-ticker.C:
			for _, cmd := range m.codec.PollCommands() {
				if _, err := port.Write(cmd); err != nil {
					logging.Debugf("transport", "poll write failed: %v", err)
				}
			}
		}
	}
}

// apply mutates the state store, one change per decoded field.
func (m *Manager) apply(frames []protocol.Frame) {
	for _, f := range frames {
		switch f.Kind {
		case protocol.FrameFrequency:
			m.store.SetFrequency(f.Frequency)
		case protocol.FrameMode:
			m.store.SetMode(f.Mode, f.Width)
		case protocol.FramePTT:
			m.store.SetPTT(f.PTT)
		}
	}
}

func (m *Manager) setPort(port Port) {
	m.mu.Lock()
	m.port = port
	m.mu.Unlock()
}

// Send writes one raw frame to the device. False means the radio is
// unreachable and the command was dropped.
func (m *Manager) Send(frame []byte) bool {
	m.mu.Lock()
	port := m.port
	m.mu.Unlock()

	if port == nil {
		return false
	}
	if _, err := port.Write(frame); err != nil {
		logging.Warnf("transport", "command write failed: %v", err)
		return false
	}
	return true
}
