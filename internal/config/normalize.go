// internal/config/normalize.go
package config

import "strings"

// Defaults mirror a stock RS-485 deployment.
const (
	DefaultIP               = "127.0.0.1"
	DefaultPort             = 502
	DefaultBaudRate         = 9600
	DefaultDataBits         = 8
	DefaultParity           = "odd"
	DefaultStopBits         = 1
	DefaultByteOrder        = "big_endian"
	DefaultTimeoutMs        = 1000
	DefaultIntervalMs       = 1000
	DefaultServerIdleMs     = 30000
	DefaultMaxClients       = 10
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "console"
	FunctionCoil            = "coil"
	FunctionHoldingRegister = "holding_register"
)

// Normalize fills defaults and canonicalizes enum spellings.
// It must run before Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	s := &cfg.Server
	if s.IP == "" {
		s.IP = DefaultIP
	}
	if s.Port == 0 {
		s.Port = DefaultPort
	}
	if s.TimeoutMs == 0 {
		s.TimeoutMs = DefaultServerIdleMs
	}
	if s.MaxClients == 0 {
		s.MaxClients = DefaultMaxClients
	}

	sp := &cfg.Serial
	if sp.BaudRate == 0 {
		sp.BaudRate = DefaultBaudRate
	}
	if sp.DataBits == 0 {
		sp.DataBits = DefaultDataBits
	}
	sp.Parity = lower(sp.Parity, DefaultParity)
	if sp.StopBits == 0 {
		sp.StopBits = DefaultStopBits
	}
	sp.ByteOrder = canonicalByteOrder(lower(sp.ByteOrder, DefaultByteOrder))
	if sp.ReadTimeoutMs == 0 {
		sp.ReadTimeoutMs = DefaultTimeoutMs
	}
	if sp.WriteTimeoutMs == 0 {
		sp.WriteTimeoutMs = DefaultTimeoutMs
	}

	if cfg.Scan.IntervalMs == 0 {
		cfg.Scan.IntervalMs = DefaultIntervalMs
	}
	for i := range cfg.Scan.Blocks {
		b := &cfg.Scan.Blocks[i]
		b.Function = CanonicalFunction(b.Function)
	}

	cfg.Logging.Level = lower(cfg.Logging.Level, DefaultLogLevel)
	cfg.Logging.Format = lower(cfg.Logging.Format, DefaultLogFormat)
}

// CanonicalFunction maps accepted spellings ("Coil", "HoldingRegister", "holding-register")
// onto the canonical names. Unknown names are returned lowercased and left for the scanner to reject.
func CanonicalFunction(fn string) string {
	k := strings.ToLower(strings.TrimSpace(fn))
	k = strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
	switch k {
	case "coil", "coils":
		return FunctionCoil
	case "holdingregister", "holdingregisters":
		return FunctionHoldingRegister
	}
	return strings.ToLower(strings.TrimSpace(fn))
}

func canonicalByteOrder(s string) string {
	switch s {
	case "big", "bigendian":
		return "big_endian"
	case "little", "littleendian":
		return "little_endian"
	}
	return s
}

func lower(s, def string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def
	}
	return s
}
