// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
//
// Unknown block functions and zero-length blocks are not rejected here:
// the scanner logs and skips them at run time.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	declared := make(map[uint8]struct{}, len(cfg.Server.Stations))
	for _, id := range cfg.Server.Stations {
		declared[id] = struct{}{}
	}

	// ------------------------------------------------------------
	// READ BLOCK GEOMETRY
	// ------------------------------------------------------------

	for i, b := range cfg.Scan.Blocks {
		if _, ok := declared[b.Station]; !ok {
			return fmt.Errorf(
				"config: scan block %d: station %d is not listed in server.stations",
				i, b.Station,
			)
		}

		end := int(b.StartAddress) + int(b.Length)
		if end > 65536 {
			return fmt.Errorf(
				"config: scan block %d: start_address %d + length %d exceeds the 65536 address space",
				i, b.StartAddress, b.Length,
			)
		}
	}

	for id := range cfg.Status.Names {
		if _, ok := declared[id]; !ok {
			return fmt.Errorf("config: status.names: station %d is not listed in server.stations", id)
		}
	}

	return nil
}
