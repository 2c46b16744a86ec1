// internal/image/registers.go
package image

import (
	"sync"

	"github.com/tamzrod/modbus-rtu-gateway/internal/codec"
)

// HoldingRegisterBank stores 16-bit signed words, two bytes each, in the deployment byte order.
type HoldingRegisterBank struct {
	mu    sync.RWMutex
	order codec.Endianness
	buf   []byte
}

func newHoldingRegisterBank(order codec.Endianness) *HoldingRegisterBank {
	return &HoldingRegisterBank{
		order: order,
		buf:   make([]byte, 2*AddressSpace),
	}
}

// Read returns count words starting at start.
func (b *HoldingRegisterBank) Read(start uint16, count int) ([]int16, error) {
	if err := checkRange(start, count); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]int16, count)
	for i := range out {
		out[i] = b.order.Word(b.buf[2*(int(start)+i):])
	}
	return out, nil
}

// Write stores words at start and returns the addresses whose value changed.
func (b *HoldingRegisterBank) Write(start uint16, words []int16) ([]uint16, error) {
	if err := checkRange(start, len(words)); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	var changed []uint16
	for i, w := range words {
		addr := int(start) + i
		p := b.buf[2*addr:]
		if b.order.Word(p) != w {
			b.order.PutWord(p, w)
			changed = append(changed, uint16(addr))
		}
	}
	return changed, nil
}

// Slice copies n raw bytes from byte offset off.
func (b *HoldingRegisterBank) Slice(off, n int) ([]byte, error) {
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
func (b *HoldingRegisterBank) Patch(off int, data []byte) error {
	if err := checkBytes(off, len(data), len(b.buf)); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	copy(b.buf[off:], data)
	return nil
}
