// internal/image/image.go
package image

import (
	"errors"
	"fmt"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/tamzrod/modbus-rtu-gateway/internal/codec"
)

// AddressSpace is the number of addressable coils or registers per unit.
const AddressSpace = 65536

var (
	ErrOutOfBounds   = errors.New("image: address out of bounds")
	ErrUnknownUnit   = errors.New("image: unknown unit")
	ErrDuplicateUnit = errors.New("image: duplicate unit id")
)

// Unit is one station's memory: a coil bank and a holding register bank.
type Unit struct {
	ID        uint8
	Coils     *CoilBank
	Registers *HoldingRegisterBank
}

// Image holds every declared unit. Units are created once and never removed.
type Image struct {
	order codec.Endianness
	units *xsync.MapOf[uint8, *Unit]
	ids   []uint8
}

// New allocates one zeroed unit per id.
func New(order codec.Endianness, ids []uint8) (*Image, error) {
	img := &Image{
		order: order,
		units: xsync.NewMapOf[uint8, *Unit](),
	}
	for _, id := range ids {
		u := &Unit{
			ID:        id,
			Coils:     newCoilBank(),
			Registers: newHoldingRegisterBank(order),
		}
		if _, loaded := img.units.LoadOrStore(id, u); loaded {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateUnit, id)
		}
		img.ids = append(img.ids, id)
	}
	sort.Slice(img.ids, func(i, j int) bool { return img.ids[i] < img.ids[j] })
	return img, nil
}

// Order is the byte order of every holding register buffer in the image.
func (img *Image) Order() codec.Endianness { return img.order }

// Unit looks up a declared unit.
func (img *Image) Unit(id uint8) (*Unit, error) {
	u, ok := img.units.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUnit, id)
	}
	return u, nil
}

// IDs returns the declared unit ids in ascending order.
func (img *Image) IDs() []uint8 {
	out := make([]uint8, len(img.ids))
	copy(out, img.ids)
	return out
}

func checkRange(start uint16, count int) error {
	if count < 0 || int(start)+count > AddressSpace {
		return fmt.Errorf("%w: start=%d count=%d", ErrOutOfBounds, start, count)
	}
	return nil
}

func checkBytes(off, n, size int) error {
	if off < 0 || n < 0 || off+n > size {
		return fmt.Errorf("%w: offset=%d len=%d size=%d", ErrOutOfBounds, off, n, size)
	}
	return nil
}
