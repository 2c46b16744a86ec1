// internal/server/server.go
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/simonvetter/modbus"

	"github.com/tamzrod/modbus-rtu-gateway/internal/logging"
)

// Config is the TCP listener description.
type Config struct {
	Addr       string // host:port
	Timeout    time.Duration
	MaxClients uint
}

// Server is the Modbus TCP face of the gateway.
type Server struct {
	cfg Config
	srv *modbus.ModbusServer
	log *slog.Logger
}

func New(cfg Config, h *Handler, log *slog.Logger) (*Server, error) {
	if cfg.Addr == "" {
		return nil, errors.New("server: listen address required")
	}
	if h == nil {
		return nil, errors.New("server: handler required")
	}

	srv, err := modbus.NewServer(&modbus.ServerConfiguration{
		URL:        "tcp://" + cfg.Addr,
		Timeout:    cfg.Timeout,
		MaxClients: cfg.MaxClients,
	}, h)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	return &Server{cfg: cfg, srv: srv, log: logging.OrDefault(log)}, nil
}

// Start begins accepting connections and returns immediately.
func (s *Server) Start() error {
	if err := s.srv.Start(); err != nil {
		return fmt.Errorf("server: start %s: %w", s.cfg.Addr, err)
	}
	s.log.Info("modbus tcp server started", "addr", s.cfg.Addr)
	return nil
}

// Stop closes the listener and every client connection.
func (s *Server) Stop() error {
	err := s.srv.Stop()
	s.log.Info("modbus tcp server stopped", "addr", s.cfg.Addr)
	return err
}
