// internal/server/handler.go
package server

import (
	"errors"
	"log/slog"

	"github.com/simonvetter/modbus"

	"github.com/tamzrod/modbus-rtu-gateway/internal/codec"
	"github.com/tamzrod/modbus-rtu-gateway/internal/image"
	"github.com/tamzrod/modbus-rtu-gateway/internal/logging"
	"github.com/tamzrod/modbus-rtu-gateway/internal/status"
)

// ChangeFunc receives (unit, ascending changed addresses) after a remote write.
type ChangeFunc func(unit uint8, addrs []uint16)

// StatusSource provides the health block served as input registers.
type StatusSource interface {
	Snapshot(unit uint8) status.Snapshot
}

// Handler serves the register image to Modbus TCP masters.
// Handler methods are called from one goroutine per client connection.
type Handler struct {
	img            *image.Image
	status         StatusSource
	raiseUnchanged bool
	log            *slog.Logger

	onCoils     ChangeFunc
	onRegisters ChangeFunc

	// dispatch runs change callbacks. Defaults to a new goroutine per notification.
	dispatch func(func())
}

var _ modbus.RequestHandler = (*Handler)(nil)

// NewHandler builds a handler over img. status may be nil to disable input registers.
func NewHandler(img *image.Image, st StatusSource, raiseUnchanged bool, log *slog.Logger) *Handler {
	return &Handler{
		img:            img,
		status:         st,
		raiseUnchanged: raiseUnchanged,
		log:            logging.OrDefault(log),
		dispatch:       func(fn func()) { go fn() },
	}
}

// OnCoilsChanged registers the coil change callback.
func (h *Handler) OnCoilsChanged(fn ChangeFunc) { h.onCoils = fn }

// OnHoldingRegistersChanged registers the holding register change callback.
func (h *Handler) OnHoldingRegistersChanged(fn ChangeFunc) { h.onRegisters = fn }

func (h *Handler) HandleCoils(req *modbus.CoilsRequest) ([]bool, error) {
	u, err := h.unit(req.UnitId)
	if err != nil {
		return nil, err
	}

	if !req.IsWrite {
		res, err := u.Coils.Read(req.Addr, int(req.Quantity))
		return res, mapErr(err)
	}

	changed, err := u.Coils.Write(req.Addr, req.Args)
	if err != nil {
		return nil, mapErr(err)
	}
	h.notify(h.onCoils, req.UnitId, h.reported(req.Addr, len(req.Args), changed))
	return req.Args, nil
}

func (h *Handler) HandleDiscreteInputs(req *modbus.DiscreteInputsRequest) ([]bool, error) {
	return nil, modbus.ErrIllegalFunction
}

func (h *Handler) HandleHoldingRegisters(req *modbus.HoldingRegistersRequest) ([]uint16, error) {
	u, err := h.unit(req.UnitId)
	if err != nil {
		return nil, err
	}

	if !req.IsWrite {
		words, err := u.Registers.Read(req.Addr, int(req.Quantity))
		if err != nil {
			return nil, mapErr(err)
		}
		return codec.ToUint16(words), nil
	}

	changed, err := u.Registers.Write(req.Addr, codec.FromUint16(req.Args))
	if err != nil {
		return nil, mapErr(err)
	}
	h.notify(h.onRegisters, req.UnitId, h.reported(req.Addr, len(req.Args), changed))
	return req.Args, nil
}

// HandleInputRegisters serves the unit health block.
func (h *Handler) HandleInputRegisters(req *modbus.InputRegistersRequest) ([]uint16, error) {
	if h.status == nil {
		return nil, modbus.ErrIllegalFunction
	}
	if _, err := h.unit(req.UnitId); err != nil {
		return nil, err
	}
	end := int(req.Addr) + int(req.Quantity)
	if end > status.SlotsPerUnit {
		return nil, modbus.ErrIllegalDataAddress
	}
	block := status.Encode(h.status.Snapshot(req.UnitId))
	return block[req.Addr:end], nil
}

// ---- helpers ----

func (h *Handler) unit(id uint8) (*image.Unit, error) {
	u, err := h.img.Unit(id)
	if err != nil {
		// unknown stations are rejected like a device without the function
		return nil, modbus.ErrIllegalFunction
	}
	return u, nil
}

func (h *Handler) reported(start uint16, n int, changed []uint16) []uint16 {
	if !h.raiseUnchanged {
		return changed
	}
	all := make([]uint16, n)
	for i := range all {
		all[i] = start + uint16(i)
	}
	return all
}

func (h *Handler) notify(fn ChangeFunc, unit uint8, addrs []uint16) {
	if fn == nil || len(addrs) == 0 {
		return
	}
	h.dispatch(func() { fn(unit, addrs) })
}

func mapErr(err error) error {
	if errors.Is(err, image.ErrOutOfBounds) {
		return modbus.ErrIllegalDataAddress
	}
	if err != nil {
		return modbus.ErrServerDeviceFailure
	}
	return nil
}
