// internal/scanner/scanner.go
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tamzrod/modbus-rtu-gateway/internal/arbiter"
	"github.com/tamzrod/modbus-rtu-gateway/internal/codec"
	"github.com/tamzrod/modbus-rtu-gateway/internal/image"
	"github.com/tamzrod/modbus-rtu-gateway/internal/logging"
	"github.com/tamzrod/modbus-rtu-gateway/internal/metrics"
	"github.com/tamzrod/modbus-rtu-gateway/internal/rtu"
)

var (
	ErrUnknownFunction = errors.New("scanner: unknown function")
	ErrZeroLength      = errors.New("scanner: zero-length block")
)

// HealthObserver receives the outcome of every block that reached the bus.
type HealthObserver interface {
	Observe(unit uint8, err error)
}

// Config is the immutable runtime config the scanner needs.
type Config struct {
	Interval time.Duration
	Blocks   []ReadBlock
}

// Scanner refreshes the register image from the field bus on a fixed cadence.
type Scanner struct {
	cfg    Config
	bus    *arbiter.Arbiter
	client rtu.Client
	img    *image.Image
	health HealthObserver
	log    *slog.Logger
}

// New creates a scanner. An empty block list is valid: every cycle is a no-op.
func New(cfg Config, bus *arbiter.Arbiter, client rtu.Client, img *image.Image, health HealthObserver, log *slog.Logger) (*Scanner, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("scanner: interval must be > 0")
	}
	if bus == nil || client == nil || img == nil {
		return nil, errors.New("scanner: arbiter, client and image are required")
	}
	blocks := make([]ReadBlock, len(cfg.Blocks))
	copy(blocks, cfg.Blocks)
	cfg.Blocks = blocks

	return &Scanner{
		cfg:    cfg,
		bus:    bus,
		client: client,
		img:    img,
		health: health,
		log:    logging.OrDefault(log),
	}, nil
}

// ScanOnce performs exactly one pass over the blocks, in configured order.
// A failing block is logged and skipped; it never aborts the cycle.
// Once ctx is done no further block is started.
func (s *Scanner) ScanOnce(ctx context.Context) CycleResult {
	res := CycleResult{At: time.Now()}

	for _, b := range s.cfg.Blocks {
		if ctx.Err() != nil {
			res.Interrupted = true
			return res
		}

		err := s.scanBlock(ctx, b)
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			// cancelled while waiting for the bus: nothing was sent
			res.Interrupted = true
			return res
		}

		br := BlockResult{Block: b, Err: err}
		switch {
		case errors.Is(err, ErrUnknownFunction), errors.Is(err, ErrZeroLength):
			br.Skipped = true
			metrics.SkipScanBlock(b.Unit, string(b.Function))
			s.log.Error("scan block skipped",
				"unit", b.Unit, "fn", b.Function, "start", b.Start, "length", b.Length, "err", err)
		default:
			metrics.ObserveScanBlock(b.Unit, string(b.Function), err)
			if s.health != nil {
				s.health.Observe(b.Unit, err)
			}
			if err != nil {
				s.log.Error("scan block failed",
					"unit", b.Unit, "fn", b.Function, "start", b.Start, "length", b.Length, "err", err)
			}
		}
		res.Blocks = append(res.Blocks, br)
	}

	metrics.ScanCycles.Inc()
	s.log.Debug("scan cycle done", "blocks", len(res.Blocks), "failed", res.Failed())
	return res
}

func (s *Scanner) scanBlock(ctx context.Context, b ReadBlock) error {
	if b.Length == 0 {
		return ErrZeroLength
	}

	switch b.Function {
	case Coil:
		u, err := s.img.Unit(b.Unit)
		if err != nil {
			return err
		}
		raw, err := s.read(ctx, func() ([]byte, error) {
			return s.client.ReadCoils(b.Unit, b.Start, b.Length)
		})
		if err != nil {
			return err
		}
		if _, err := u.Coils.Write(b.Start, codec.UnpackBits(raw, int(b.Length))); err != nil {
			return err
		}
		return nil

	case HoldingRegister:
		u, err := s.img.Unit(b.Unit)
		if err != nil {
			return err
		}
		raw, err := s.read(ctx, func() ([]byte, error) {
			return s.client.ReadHoldingRegisters(b.Unit, b.Start, b.Length)
		})
		if err != nil {
			return err
		}
		words, err := codec.DecodeRegisters(raw, s.img.Order())
		if err != nil {
			return err
		}
		if len(words) != int(b.Length) {
			return fmt.Errorf("scanner: got %d registers, want %d", len(words), b.Length)
		}
		if _, err := u.Registers.Write(b.Start, words); err != nil {
			return err
		}
		return nil

	default:
		return fmt.Errorf("%w: %q", ErrUnknownFunction, b.Function)
	}
}

// read holds the bus only for the transaction itself; decoding happens after release.
func (s *Scanner) read(ctx context.Context, fn func() ([]byte, error)) ([]byte, error) {
	var raw []byte
	err := s.bus.Do(ctx, func() error {
		var err error
		raw, err = fn()
		return err
	})
	return raw, err
}
