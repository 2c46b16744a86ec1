// internal/image/coils.go
package image

import (
	"sync"

	"github.com/tamzrod/modbus-rtu-gateway/internal/codec"
)

// CoilBank is a packed bit array, LSB first, one bit per coil address.
type CoilBank struct {
	mu  sync.RWMutex
	buf []byte
}

func newCoilBank() *CoilBank {
	return &CoilBank{buf: make([]byte, AddressSpace/8)}
}

// Read returns count coils starting at start.
func (b *CoilBank) Read(start uint16, count int) ([]bool, error) {
	if err := checkRange(start, count); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return codec.ExtractBits(b.buf, int(start), count), nil
}

// Write stores values at start and returns the addresses whose value changed.
func (b *CoilBank) Write(start uint16, values []bool) ([]uint16, error) {
	if err := checkRange(start, len(values)); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var changed []uint16
	for i, v := range values {
		addr := int(start) + i
		if codec.GetBit(b.buf, addr) != v {
			codec.SetBit(b.buf, addr, v)
			changed = append(changed, uint16(addr))
		}
	}
	return changed, nil
}

// Slice copies n raw bytes from byte offset off.
func (b *CoilBank) Slice(off, n int) ([]byte, error) {
	if err := checkBytes(off, n, len(b.buf)); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]byte, n)
	copy(out, b.buf[off:off+n])
	return out, nil
}

// Patch overwrites raw bytes at byte offset off.
func (b *CoilBank) Patch(off int, data []byte) error {
	if err := checkBytes(off, len(data), len(b.buf)); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	copy(b.buf[off:], data)
	return nil
}
