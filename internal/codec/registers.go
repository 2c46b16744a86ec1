// internal/codec/registers.go
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// ErrOddLength is returned when a register buffer is not a whole number of words.
var ErrOddLength = errors.New("codec: register buffer length not even")

// Endianness is the byte order of one 16-bit register in a raw buffer.
// Fixed per deployment.
type Endianness uint8

const (
	BigEndian Endianness = iota
	LittleEndian
)

func (e Endianness) String() string {
	switch e {
	case BigEndian:
		return "big_endian"
	case LittleEndian:
		return "little_endian"
	default:
		return fmt.Sprintf("endianness(%d)", uint8(e))
	}
}

// ParseEndianness accepts "big_endian"/"little_endian" and the short forms "big"/"little".
func ParseEndianness(s string) (Endianness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "big", "big_endian", "bigendian":
		return BigEndian, nil
	case "little", "little_endian", "littleendian":
		return LittleEndian, nil
	}
	return BigEndian, fmt.Errorf("codec: unknown byte order %q", s)
}

func (e Endianness) order() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// PutWord writes one word at dst[0:2].
func (e Endianness) PutWord(dst []byte, w int16) {
	e.order().PutUint16(dst, uint16(w))
}

// Word reads one word from src[0:2].
func (e Endianness) Word(src []byte) int16 {
	return int16(e.order().Uint16(src))
}

// EncodeRegisters emits each word as 2 bytes in the given order, concatenated in sequence order.
func EncodeRegisters(words []int16, e Endianness) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		e.PutWord(out[2*i:], w)
	}
	return out
}

// DecodeRegisters is the inverse of EncodeRegisters.
func DecodeRegisters(data []byte, e Endianness) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrOddLength, len(data))
	}
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = e.Word(data[2*i:])
	}
	return out, nil
}

// ToUint16 reinterprets signed words as the unsigned values carried on the wire.
func ToUint16(words []int16) []uint16 {
	out := make([]uint16, len(words))
	for i, w := range words {
		out[i] = uint16(w)
	}
	return out
}

// FromUint16 is the inverse of ToUint16.
func FromUint16(values []uint16) []int16 {
	out := make([]int16, len(values))
	for i, v := range values {
		out[i] = int16(v)
	}
	return out
}
