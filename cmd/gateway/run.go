// cmd/gateway/run.go
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/modbus-rtu-gateway/internal/arbiter"
	"github.com/tamzrod/modbus-rtu-gateway/internal/codec"
	"github.com/tamzrod/modbus-rtu-gateway/internal/config"
	"github.com/tamzrod/modbus-rtu-gateway/internal/image"
	"github.com/tamzrod/modbus-rtu-gateway/internal/logging"
	"github.com/tamzrod/modbus-rtu-gateway/internal/metrics"
	"github.com/tamzrod/modbus-rtu-gateway/internal/relay"
	"github.com/tamzrod/modbus-rtu-gateway/internal/rtu"
	"github.com/tamzrod/modbus-rtu-gateway/internal/scanner"
	"github.com/tamzrod/modbus-rtu-gateway/internal/server"
	"github.com/tamzrod/modbus-rtu-gateway/internal/status"
)

func run(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	log := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	// --------------------
	// Register image
	// --------------------

	order, err := codec.ParseEndianness(cfg.Serial.ByteOrder)
	if err != nil {
		return err
	}
	img, err := image.New(order, cfg.Server.Stations)
	if err != nil {
		return err
	}

	// --------------------
	// Serial line + bus arbiter
	// --------------------

	client, err := rtu.New(rtu.Config{
		Port:         cfg.Serial.Port,
		BaudRate:     cfg.Serial.BaudRate,
		DataBits:     cfg.Serial.DataBits,
		Parity:       cfg.Serial.Parity,
		StopBits:     cfg.Serial.StopBits,
		ReadTimeout:  cfg.Serial.ReadTimeout(),
		WriteTimeout: cfg.Serial.WriteTimeout(),
	})
	if err != nil {
		return err
	}
	defer client.Close()
	log.Info("serial line open", "port", cfg.Serial.Port, "baud", cfg.Serial.BaudRate, "parity", cfg.Serial.Parity)

	bus := arbiter.New()
	bus.OnWait = metrics.ObserveBusWait

	// health is optional; keep the interfaces untyped nil when disabled
	var (
		health scanner.HealthObserver
		source server.StatusSource
	)
	if cfg.Status.Enabled {
		t := status.NewTracker(cfg.Status.Names)
		health, source = t, t
	}

	sc, err := scanner.Build(cfg.Scan, bus, client, img, health, log)
	if err != nil {
		return err
	}

	// --------------------
	// TCP side + change relay
	// --------------------

	rl := relay.New(bus, client, img, log)

	h := server.NewHandler(img, source, cfg.Server.RaiseUnchanged(), log)
	h.OnCoilsChanged(func(unit uint8, addrs []uint16) { _ = rl.CoilsChanged(unit, addrs) })
	h.OnHoldingRegistersChanged(func(unit uint8, addrs []uint16) { _ = rl.HoldingRegistersChanged(unit, addrs) })

	srv, err := server.New(server.Config{
		Addr:       cfg.Server.Addr(),
		Timeout:    time.Duration(cfg.Server.TimeoutMs) * time.Millisecond,
		MaxClients: cfg.Server.MaxClients,
	}, h, log)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Stop()

	// --------------------
	// Run until signalled
	// --------------------

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sc.Run(gctx) })
	if cfg.Metrics.Listen != "" {
		g.Go(func() error {
			log.Info("metrics listening", "addr", cfg.Metrics.Listen)
			if err := metrics.Serve(gctx, cfg.Metrics.Listen); err != nil {
				return fmt.Errorf("metrics: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()
	log.Info("gateway stopping")
	return err
}
