// internal/rtu/client.go
package rtu

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/modbus-rtu-gateway/internal/codec"
)

var (
	// ErrShortResponse is returned when a device answers with fewer bytes than requested.
	ErrShortResponse = errors.New("rtu: short response")

	// ErrClosed is returned by every call made after Close.
	ErrClosed = errors.New("rtu: client closed")
)

// Client is the field-bus contract used by the scanner and the relay.
// Callers must hold the bus arbiter around every call.
// Register payloads are raw wire bytes; interpretation is left to the caller.
type Client interface {
	ReadCoils(unit uint8, start, qty uint16) ([]byte, error)
	ReadHoldingRegisters(unit uint8, start, qty uint16) ([]byte, error)
	WriteSingleCoil(unit uint8, addr uint16, value bool) error
	WriteMultipleCoils(unit uint8, start uint16, values []bool) error
	WriteSingleRegister(unit uint8, addr uint16, raw []byte) error
	WriteMultipleRegisters(unit uint8, start uint16, raw []byte) error
}

// Config is the serial line description.
type Config struct {
	Port         string
	BaudRate     int
	DataBits     int
	Parity       string // none | odd | even
	StopBits     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// SerialClient implements Client over one RTU serial line.
// It serializes requests because it mutates SlaveId and Timeout per call.
//
// The serial port takes its timeout only when opened, so switching between
// the read and the write timeout closes the port; the next request reopens it.
type SerialClient struct {
	mu      sync.Mutex
	handler *modbus.RTUClientHandler
	client  modbus.Client
	closed  bool

	readTimeout  time.Duration
	writeTimeout time.Duration

	// timeout is what the open port was configured with.
	timeout   time.Duration
	closePort func() error
}

// New opens the serial port.
func New(cfg Config) (*SerialClient, error) {
	if cfg.Port == "" {
		return nil, errors.New("rtu: serial port required")
	}
	parity, err := parityCode(cfg.Parity)
	if err != nil {
		return nil, err
	}

	h := modbus.NewRTUClientHandler(cfg.Port)
	h.BaudRate = cfg.BaudRate
	h.DataBits = cfg.DataBits
	h.Parity = parity
	h.StopBits = cfg.StopBits
	h.Timeout = cfg.ReadTimeout

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("rtu: open %s: %w", cfg.Port, err)
	}

	return &SerialClient{
		handler:      h,
		client:       modbus.NewClient(h),
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		timeout:      cfg.ReadTimeout,
		closePort:    h.Close,
	}, nil
}

// Close releases the serial port. Later calls fail with ErrClosed instead of reopening it.
func (c *SerialClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.close()
}

// ---- reads ----

func (c *SerialClient) ReadCoils(unit uint8, start, qty uint16) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.prepare(unit, c.readTimeout); err != nil {
		return nil, err
	}

	res, err := c.client.ReadCoils(start, qty)
	if err != nil {
		return nil, err
	}
	if want := (int(qty) + 7) / 8; len(res) < want {
		return nil, fmt.Errorf("%w: coils got=%d want=%d bytes", ErrShortResponse, len(res), want)
	}
	return res, nil
}

func (c *SerialClient) ReadHoldingRegisters(unit uint8, start, qty uint16) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.prepare(unit, c.readTimeout); err != nil {
		return nil, err
	}

	res, err := c.client.ReadHoldingRegisters(start, qty)
	if err != nil {
		return nil, err
	}
	if want := 2 * int(qty); len(res) < want {
		return nil, fmt.Errorf("%w: registers got=%d want=%d bytes", ErrShortResponse, len(res), want)
	}
	return res[:2*int(qty)], nil
}

// ---- writes ----

func (c *SerialClient) WriteSingleCoil(unit uint8, addr uint16, value bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.prepare(unit, c.writeTimeout); err != nil {
		return err
	}

	var v uint16
	if value {
		v = 0xFF00
	}
	_, err := c.client.WriteSingleCoil(addr, v)
	return err
}

func (c *SerialClient) WriteMultipleCoils(unit uint8, start uint16, values []bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.prepare(unit, c.writeTimeout); err != nil {
		return err
	}

	_, err := c.client.WriteMultipleCoils(start, uint16(len(values)), codec.PackBits(values))
	return err
}

func (c *SerialClient) WriteSingleRegister(unit uint8, addr uint16, raw []byte) error {
	if len(raw) != 2 {
		return fmt.Errorf("rtu: single register needs 2 bytes, got %d", len(raw))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.prepare(unit, c.writeTimeout); err != nil {
		return err
	}

	// goburrow emits value big-endian, so raw[0] goes on the wire first.
	_, err := c.client.WriteSingleRegister(addr, uint16(raw[0])<<8|uint16(raw[1]))
	return err
}

func (c *SerialClient) WriteMultipleRegisters(unit uint8, start uint16, raw []byte) error {
	if len(raw) == 0 || len(raw)%2 != 0 {
		return fmt.Errorf("rtu: register payload must be a non-empty even length, got %d", len(raw))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.prepare(unit, c.writeTimeout); err != nil {
		return err
	}

	_, err := c.client.WriteMultipleRegisters(start, uint16(len(raw)/2), raw)
	return err
}

// ---- helpers ----

// prepare addresses unit and puts the port on timeout. Must hold c.mu.
func (c *SerialClient) prepare(unit uint8, timeout time.Duration) error {
	if c.closed {
		return ErrClosed
	}
	c.handler.SlaveId = unit
	if timeout <= 0 || timeout == c.timeout {
		return nil
	}

	c.handler.Timeout = timeout
	c.timeout = timeout
	if err := c.close(); err != nil {
		return fmt.Errorf("rtu: reopen for timeout %s: %w", timeout, err)
	}
	return nil
}

func (c *SerialClient) close() error {
	if c.closePort != nil {
		return c.closePort()
	}
	return c.handler.Close()
}

func parityCode(p string) (string, error) {
	switch strings.ToLower(p) {
	case "n", "none":
		return "N", nil
	case "o", "odd", "":
		return "O", nil
	case "e", "even":
		return "E", nil
	}
	return "", fmt.Errorf("rtu: unsupported parity %q", p)
}
