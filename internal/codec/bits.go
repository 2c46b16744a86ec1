// internal/codec/bits.go
package codec

// PackBits packs a bit sequence into bytes, LSB first.
// Bit i lives in byte i/8 at position i%8. A trailing partial byte is zero-padded.
func PackBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, v := range bits {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// UnpackBits is the inverse of PackBits.
// The result always has exactly count entries; bits beyond the data are false.
func UnpackBits(data []byte, count int) []bool {
	if count <= 0 {
		return []bool{}
	}
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		byteIdx := i / 8
		if byteIdx >= len(data) {
			break
		}
		out[i] = data[byteIdx]&(1<<uint(i%8)) != 0
	}
	return out
}

// GetBit reports bit addr of an LSB-first packed buffer.
func GetBit(buf []byte, addr int) bool {
	return buf[addr/8]&(1<<uint(addr%8)) != 0
}

// SetBit sets or clears bit addr of an LSB-first packed buffer in place.
func SetBit(buf []byte, addr int, v bool) {
	mask := byte(1 << uint(addr%8))
	if v {
		buf[addr/8] |= mask
	} else {
		buf[addr/8] &^= mask
	}
}

// ExtractBits copies count bits starting at start out of a packed buffer.
func ExtractBits(buf []byte, start, count int) []bool {
	out := make([]bool, count)
	for i := range out {
		out[i] = GetBit(buf, start+i)
	}
	return out
}
