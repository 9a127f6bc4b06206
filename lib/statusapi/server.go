// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statusapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const (
	defaultDrainTimeout = 5 * time.Second
	readHeaderTimeout   = 5 * time.Second
)

// ServerConfig configures a Server. Listen and Handler are required.
type ServerConfig struct {
	// Listen is the TCP address from status.listen. Port 0 binds a
	// free port, reported by Addr once Ready is closed.
	Listen string

	Handler http.Handler

	// DrainTimeout bounds how long Serve waits for in-flight requests
	// after its context is cancelled. Zero means 5 seconds.
	DrainTimeout time.Duration

	Logger *slog.Logger
}

// Server binds the status API to a TCP listener for the lifetime of a
// context.
type Server struct {
	config ServerConfig
	ready  chan struct{}
	addr   net.Addr
}

// NewServer validates config. Nothing is bound until Serve.
func NewServer(config ServerConfig) (*Server, error) {
	switch {
	case config.Listen == "":
		return nil, errors.New("statusapi: listen address is required")
	case config.Handler == nil:
		return nil, errors.New("statusapi: handler is required")
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = defaultDrainTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Server{config: config, ready: make(chan struct{})}, nil
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr returns the bound address. Valid after Ready is closed.
func (s *Server) Addr() net.Addr { return s.addr }

// Serve blocks until ctx is cancelled and the drain finishes, or until
// the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("statusapi: binding %s: %w", s.config.Listen, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	httpServer := &http.Server{
		Handler:           s.config.Handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	drained := make(chan error, 1)
	stopDrain := context.AfterFunc(ctx, func() {
		drainContext, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.DrainTimeout)
		defer cancel()
		drained <- httpServer.Shutdown(drainContext)
	})

	logger := s.config.Logger.With("address", s.addr.String())
	logger.Info("status API listening")

	if err := httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		stopDrain()
		return fmt.Errorf("statusapi: serving: %w", err)
	}
	if err := <-drained; err != nil {
		return fmt.Errorf("statusapi: draining: %w", err)
	}
	logger.Info("status API stopped")
	return nil
}
