// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Serial  SerialConfig  `yaml:"serial"`
	Scan    ScanConfig    `yaml:"scan"`
	Status  StatusConfig  `yaml:"status"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ---- TCP SERVER ----

type ServerConfig struct {
	IP         string  `yaml:"ip" validate:"omitempty,ip"`
	Port       int     `yaml:"port" validate:"min=1,max=65535"`
	Stations   []uint8 `yaml:"stations" validate:"required,min=1,unique"`
	TimeoutMs  int     `yaml:"timeout_ms" validate:"min=0"`
	MaxClients uint    `yaml:"max_clients"`

	// AlwaysRaiseChanged reports every written address, not only the ones whose value changed.
	// Defaults to true: the register relay writes len(addrs) words from the lowest address,
	// so a non-contiguous set such as {10, 12} would write 10 and 11 and miss 12.
	AlwaysRaiseChanged *bool `yaml:"always_raise_changed"`
}

// ---- SERIAL LINE ----

type SerialConfig struct {
	Port           string `yaml:"port" validate:"required"`
	BaudRate       int    `yaml:"baud_rate" validate:"min=1"`
	DataBits       int    `yaml:"data_bits" validate:"oneof=5 6 7 8"`
	Parity         string `yaml:"parity" validate:"oneof=none odd even"`
	StopBits       int    `yaml:"stop_bits" validate:"oneof=1 2"`
	ByteOrder      string `yaml:"byte_order" validate:"oneof=big_endian little_endian"`
	ReadTimeoutMs  int    `yaml:"read_timeout_ms" validate:"min=1"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms" validate:"min=1"`
}

// ---- SCAN ----

type ScanConfig struct {
	IntervalMs int           `yaml:"interval_ms" validate:"min=1"`
	Blocks     []BlockConfig `yaml:"blocks" validate:"dive"`
}

// BlockConfig is one read job. Order in the file is poll order.
type BlockConfig struct {
	Function     string `yaml:"function"`
	Station      uint8  `yaml:"station"`
	StartAddress uint16 `yaml:"start_address"`
	Length       uint16 `yaml:"length"`
}

// ---- AMBIENT ----

type StatusConfig struct {
	Enabled bool `yaml:"enabled"`

	// Names labels stations in their health block.
	Names map[uint8]string `yaml:"names" validate:"dive,max=16"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
}

// ---- derived values ----

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.IP, s.Port)
}

func (s ServerConfig) RaiseUnchanged() bool {
	return s.AlwaysRaiseChanged == nil || *s.AlwaysRaiseChanged
}

func (s SerialConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMs) * time.Millisecond
}

func (s SerialConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMs) * time.Millisecond
}

func (s ScanConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMs) * time.Millisecond
}

// Load reads, normalizes and validates a YAML file.
// The returned configuration must be treated as immutable.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse is Load without the file system.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	Normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
