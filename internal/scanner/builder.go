// internal/scanner/builder.go
package scanner

import (
	"log/slog"

	"github.com/tamzrod/modbus-rtu-gateway/internal/arbiter"
	cfg "github.com/tamzrod/modbus-rtu-gateway/internal/config"
	"github.com/tamzrod/modbus-rtu-gateway/internal/image"
	"github.com/tamzrod/modbus-rtu-gateway/internal/rtu"
)

// Build converts the scan section of the configuration into a Scanner.
// Block order is preserved.
func Build(sc cfg.ScanConfig, bus *arbiter.Arbiter, client rtu.Client, img *image.Image, health HealthObserver, log *slog.Logger) (*Scanner, error) {
	blocks := make([]ReadBlock, 0, len(sc.Blocks))
	for _, b := range sc.Blocks {
		blocks = append(blocks, ReadBlock{
			Function: Function(cfg.CanonicalFunction(b.Function)),
			Unit:     b.Station,
			Start:    b.StartAddress,
			Length:   b.Length,
		})
	}

	return New(
		Config{
			Interval: sc.Interval(),
			Blocks:   blocks,
		},
		bus, client, img, health, log,
	)
}
