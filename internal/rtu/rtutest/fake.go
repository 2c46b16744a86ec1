// internal/rtu/rtutest/fake.go

// Package rtutest provides an in-memory rtu.Client that records every call.
package rtutest

import (
	"fmt"
	"sync"
	"time"

	"github.com/tamzrod/modbus-rtu-gateway/internal/codec"
	"github.com/tamzrod/modbus-rtu-gateway/internal/rtu"
)

// Op names a client operation.
type Op string

const (
	OpReadCoils              Op = "ReadCoils"
	OpReadHoldingRegisters   Op = "ReadHoldingRegisters"
	OpWriteSingleCoil        Op = "WriteSingleCoil"
	OpWriteMultipleCoils     Op = "WriteMultipleCoils"
	OpWriteSingleRegister    Op = "WriteSingleRegister"
	OpWriteMultipleRegisters Op = "WriteMultipleRegisters"
)

// Call is one recorded client call.
type Call struct {
	Op    Op
	Unit  uint8
	Start uint16
	Qty   uint16
	Coils []bool // coil writes
	Raw   []byte // register writes
	Enter time.Time
	Exit  time.Time
}

// Device is the field-side memory of one unit.
// Registers are kept as raw wire bytes, two per address.
type Device struct {
	Coils     [65536]bool
	Registers [2 * 65536]byte
}

// Client is a fake field bus. Zero value is not usable; call New.
type Client struct {
	mu      sync.Mutex
	calls   []Call
	devices map[uint8]*Device

	// Delay is slept inside every call, between Enter and Exit.
	Delay time.Duration

	// Fail, if set, decides per call whether it fails.
	Fail func(c Call) error

	// Hook, if set, runs at the start of every call (outside the client lock).
	Hook func(c Call)
}

var _ rtu.Client = (*Client)(nil)

func New() *Client {
	return &Client{devices: make(map[uint8]*Device)}
}

// Device returns (creating on demand) the memory of a unit.
func (c *Client) Device(unit uint8) *Device {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device(unit)
}

func (c *Client) device(unit uint8) *Device {
	d, ok := c.devices[unit]
	if !ok {
		d = &Device{}
		c.devices[unit] = d
	}
	return d
}

// Calls returns a copy of the recorded calls.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *Client) do(call Call, fn func(d *Device) []byte) ([]byte, error) {
	call.Enter = time.Now()
	if c.Hook != nil {
		c.Hook(call)
	}
	if c.Delay > 0 {
		time.Sleep(c.Delay)
	}

	var err error
	if c.Fail != nil {
		err = c.Fail(call)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []byte
	if err == nil {
		out = fn(c.device(call.Unit))
	}
	call.Exit = time.Now()
	c.calls = append(c.calls, call)
	return out, err
}

func (c *Client) ReadCoils(unit uint8, start, qty uint16) ([]byte, error) {
	return c.do(Call{Op: OpReadCoils, Unit: unit, Start: start, Qty: qty}, func(d *Device) []byte {
		return codec.PackBits(d.Coils[int(start) : int(start)+int(qty)])
	})
}

func (c *Client) ReadHoldingRegisters(unit uint8, start, qty uint16) ([]byte, error) {
	return c.do(Call{Op: OpReadHoldingRegisters, Unit: unit, Start: start, Qty: qty}, func(d *Device) []byte {
		out := make([]byte, 2*int(qty))
		copy(out, d.Registers[2*int(start):])
		return out
	})
}

func (c *Client) WriteSingleCoil(unit uint8, addr uint16, value bool) error {
	_, err := c.do(Call{Op: OpWriteSingleCoil, Unit: unit, Start: addr, Qty: 1, Coils: []bool{value}}, func(d *Device) []byte {
		d.Coils[addr] = value
		return nil
	})
	return err
}

func (c *Client) WriteMultipleCoils(unit uint8, start uint16, values []bool) error {
	vals := append([]bool(nil), values...)
	_, err := c.do(Call{Op: OpWriteMultipleCoils, Unit: unit, Start: start, Qty: uint16(len(vals)), Coils: vals}, func(d *Device) []byte {
		copy(d.Coils[start:], vals)
		return nil
	})
	return err
}

func (c *Client) WriteSingleRegister(unit uint8, addr uint16, raw []byte) error {
	if len(raw) != 2 {
		return fmt.Errorf("rtutest: single register needs 2 bytes, got %d", len(raw))
	}
	b := append([]byte(nil), raw...)
	_, err := c.do(Call{Op: OpWriteSingleRegister, Unit: unit, Start: addr, Qty: 1, Raw: b}, func(d *Device) []byte {
		copy(d.Registers[2*int(addr):], b)
		return nil
	})
	return err
}

func (c *Client) WriteMultipleRegisters(unit uint8, start uint16, raw []byte) error {
	b := append([]byte(nil), raw...)
	_, err := c.do(Call{Op: OpWriteMultipleRegisters, Unit: unit, Start: start, Qty: uint16(len(b) / 2), Raw: b}, func(d *Device) []byte {
		copy(d.Registers[2*int(start):], b)
		return nil
	})
	return err
}

// Overlaps reports the first pair of calls whose [Enter, Exit] intervals intersect.
func Overlaps(calls []Call) (a, b Call, found bool) {
	for i := range calls {
		for j := i + 1; j < len(calls); j++ {
			if calls[i].Enter.Before(calls[j].Exit) && calls[j].Enter.Before(calls[i].Exit) {
				return calls[i], calls[j], true
			}
		}
	}
	return Call{}, Call{}, false
}
