// internal/relay/relay.go
package relay

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tamzrod/modbus-rtu-gateway/internal/arbiter"
	"github.com/tamzrod/modbus-rtu-gateway/internal/codec"
	"github.com/tamzrod/modbus-rtu-gateway/internal/image"
	"github.com/tamzrod/modbus-rtu-gateway/internal/logging"
	"github.com/tamzrod/modbus-rtu-gateway/internal/metrics"
	"github.com/tamzrod/modbus-rtu-gateway/internal/rtu"
)

// ErrNoAddresses is returned for a change notification without addresses.
var ErrNoAddresses = errors.New("relay: empty change set")

// Relay forwards TCP-side writes to the field bus.
// It is purely reactive: no goroutines, no state between calls.
type Relay struct {
	bus    *arbiter.Arbiter
	client rtu.Client
	img    *image.Image
	log    *slog.Logger
}

func New(bus *arbiter.Arbiter, client rtu.Client, img *image.Image, log *slog.Logger) *Relay {
	return &Relay{
		bus:    bus,
		client: client,
		img:    img,
		log:    logging.OrDefault(log),
	}
}

// HoldingRegistersChanged mirrors changed holding registers of a unit onto the device.
// addrs are treated as one contiguous run of len(addrs) words starting at the lowest address.
// Failures are logged and swallowed; the returned error is for tests and callers that care.
func (r *Relay) HoldingRegistersChanged(unit uint8, addrs []uint16) error {
	err := r.relayRegisters(unit, addrs)
	if !errors.Is(err, ErrNoAddresses) {
		metrics.ObserveRelay(unit, metrics.KindRegisters, err)
	}
	return err
}

// CoilsChanged mirrors changed coils of a unit onto the device.
// The write window spans the lowest to the highest address inclusive, interior bits included.
func (r *Relay) CoilsChanged(unit uint8, addrs []uint16) error {
	err := r.relayCoils(unit, addrs)
	if !errors.Is(err, ErrNoAddresses) {
		metrics.ObserveRelay(unit, metrics.KindCoils, err)
	}
	return err
}

func (r *Relay) relayRegisters(unit uint8, addrs []uint16) error {
	if len(addrs) == 0 {
		return ErrNoAddresses
	}
	start, _ := span(addrs)
	count := len(addrs)

	u, err := r.img.Unit(unit)
	if err != nil {
		r.log.Error("relay registers failed", "unit", unit, "start", start, "err", err)
		return err
	}
	words, err := u.Registers.Read(start, count)
	if err != nil {
		r.log.Error("relay registers failed", "unit", unit, "start", start, "count", count, "err", err)
		return err
	}
	raw := codec.EncodeRegisters(words, r.img.Order())

	// Relay reactions are never cancelled; shutdown lets them finish.
	err = r.bus.Do(context.Background(), func() error {
		if count == 1 {
			return r.client.WriteSingleRegister(unit, start, raw)
		}
		return r.client.WriteMultipleRegisters(unit, start, raw)
	})
	if err != nil {
		r.log.Error("relay registers failed", "unit", unit, "start", start, "bytes", raw, "err", err)
		return err
	}
	r.log.Debug("relayed registers", "unit", unit, "start", start, "count", count)
	return nil
}

func (r *Relay) relayCoils(unit uint8, addrs []uint16) error {
	if len(addrs) == 0 {
		return ErrNoAddresses
	}
	start, last := span(addrs)
	qty := int(last) - int(start) + 1

	u, err := r.img.Unit(unit)
	if err != nil {
		r.log.Error("relay coils failed", "unit", unit, "start", start, "err", err)
		return err
	}
	coils, err := u.Coils.Read(start, qty)
	if err != nil {
		r.log.Error("relay coils failed", "unit", unit, "start", start, "quantity", qty, "err", err)
		return err
	}

	err = r.bus.Do(context.Background(), func() error {
		if qty == 1 {
			return r.client.WriteSingleCoil(unit, start, coils[0])
		}
		return r.client.WriteMultipleCoils(unit, start, coils)
	})
	if err != nil {
		r.log.Error("relay coils failed", "unit", unit, "start", start, "coils", coils, "err", err)
		return err
	}
	r.log.Debug("relayed coils", "unit", unit, "start", start, "quantity", qty)
	return nil
}

// span returns the lowest and highest address of a non-empty set.
func span(addrs []uint16) (lo, hi uint16) {
	lo, hi = addrs[0], addrs[0]
	for _, a := range addrs[1:] {
		if a < lo {
			lo = a
		}
		if a > hi {
			hi = a
		}
	}
	return lo, hi
}
