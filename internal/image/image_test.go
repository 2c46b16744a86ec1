// internal/image/image_test.go
package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-rtu-gateway/internal/codec"
)

func TestNew_UnitsAndLookup(t *testing.T) {
	img, err := New(codec.BigEndian, []uint8{7, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 3, 7}, img.IDs())

	u, err := img.Unit(3)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), u.ID)

	_, err = img.Unit(4)
	require.ErrorIs(t, err, ErrUnknownUnit)

	_, err = New(codec.BigEndian, []uint8{1, 1})
	require.ErrorIs(t, err, ErrDuplicateUnit)
}

func TestCoilBank_WriteReportsChanged(t *testing.T) {
	img, err := New(codec.BigEndian, []uint8{1})
	require.NoError(t, err)
	u, _ := img.Unit(1)

	changed, err := u.Coils.Write(3, []bool{true, false, true})
	require.NoError(t, err)
	assert.Equal(t, []uint16{3, 5}, changed)

	raw, err := u.Coils.Slice(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{40}, raw)

	changed, err = u.Coils.Write(3, []bool{true, false, true})
	require.NoError(t, err)
	assert.Empty(t, changed)

	got, err := u.Coils.Read(2, 5)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false, true, false}, got)
}

func TestCoilBank_Bounds(t *testing.T) {
	img, _ := New(codec.BigEndian, []uint8{1})
	u, _ := img.Unit(1)

	_, err := u.Coils.Read(65535, 1)
	require.NoError(t, err)
	_, err = u.Coils.Read(65535, 2)
	require.ErrorIs(t, err, ErrOutOfBounds)
	_, err = u.Coils.Write(65530, make([]bool, 7))
	require.ErrorIs(t, err, ErrOutOfBounds)
	require.ErrorIs(t, u.Coils.Patch(8191, []byte{1, 2}), ErrOutOfBounds)
}

func TestHoldingRegisterBank_ByteOrder(t *testing.T) {
	for _, tc := range []struct {
		order codec.Endianness
		raw   []byte
	}{
		{codec.BigEndian, []byte{0x12, 0x34}},
		{codec.LittleEndian, []byte{0x34, 0x12}},
	} {
		img, _ := New(tc.order, []uint8{1})
		u, _ := img.Unit(1)

		_, err := u.Registers.Write(10, []int16{0x1234})
		require.NoError(t, err)

		raw, err := u.Registers.Slice(20, 2)
		require.NoError(t, err)
		assert.Equal(t, tc.raw, raw, tc.order.String())
	}
}

func TestHoldingRegisterBank_ReadWriteAndBounds(t *testing.T) {
	img, _ := New(codec.BigEndian, []uint8{1})
	u, _ := img.Unit(1)

	changed, err := u.Registers.Write(100, []int16{-1, 0, 5})
	require.NoError(t, err)
	assert.Equal(t, []uint16{100, 102}, changed)

	got, err := u.Registers.Read(99, 4)
	require.NoError(t, err)
	assert.Equal(t, []int16{0, -1, 0, 5}, got)

	require.NoError(t, u.Registers.Patch(0, []byte{0x00, 0x2A}))
	got, _ = u.Registers.Read(0, 1)
	assert.Equal(t, []int16{42}, got)

	_, err = u.Registers.Read(65000, 600)
	require.ErrorIs(t, err, ErrOutOfBounds)
	_, err = u.Registers.Slice(2*AddressSpace-1, 2)
	require.ErrorIs(t, err, ErrOutOfBounds)
}
