package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/echo-gravitas/openhamclock/pkg/bridge"
	"github.com/echo-gravitas/openhamclock/pkg/config"
	"github.com/echo-gravitas/openhamclock/pkg/logging"
	"github.com/echo-gravitas/openhamclock/pkg/protocol"
	"github.com/echo-gravitas/openhamclock/pkg/state"
	"github.com/echo-gravitas/openhamclock/pkg/transport"
)

// Daemon wires codec, transport, state store and HTTP server together
// for one bridge process.
type Daemon struct {
	config    *config.Config
	store     *state.Store
	codec     protocol.Codec
	transport transport.Transport
	server    *bridge.Server

	wg sync.WaitGroup
}

// NewDaemon builds the component graph. The only fatal path is an
// unknown vendor brand; everything after startup degrades instead of
// failing.
func NewDaemon(cfg *config.Config) (*Daemon, error) {
	codec, err := protocol.New(cfg.Radio.Brand, cfg.CIVAddr())
	if err != nil {
		return nil, fmt.Errorf("failed to create codec: %w", err)
	}

	store := state.NewStore()

	var tr transport.Transport
	if cfg.Simulate {
		tr = transport.NewSimulator(store)
	} else {
		tr = transport.NewManager(codec, store, transport.Options{
			Open:         transport.OpenSerial(cfg),
			PollInterval: time.Duration(cfg.Radio.PollInterval) * time.Millisecond,
		})
	}

	return &Daemon{
		config:    cfg,
		store:     store,
		codec:     codec,
		transport: tr,
		server:    bridge.NewServer(cfg, store, codec, tr, Version),
	}, nil
}

// Start launches the transport supervisor and the web server.
func (d *Daemon) Start() {
	d.transport.Start()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.server.Start(); err != nil {
			logging.Errorf("main", "web server error: %v", err)
		}
	}()
}

// Stop shuts everything down: web server first so no new commands
// arrive, then the transport so the serial handle is released.
func (d *Daemon) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.server.Shutdown(ctx); err != nil {
		logging.Warnf("main", "web server shutdown: %v", err)
	}

	d.transport.Stop()
	d.wg.Wait()
}
