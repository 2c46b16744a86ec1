// internal/rtu/client_test.go
package rtu

import (
	"testing"
	"time"

	"github.com/goburrow/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParityCode(t *testing.T) {
	for in, want := range map[string]string{
		"none": "N", "N": "N", "odd": "O", "": "O", "Even": "E",
	} {
		got, err := parityCode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parityCode("mark")
	require.Error(t, err)
}

func TestNew_RequiresPort(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestWriteRegisters_RejectBadPayloadBeforeBus(t *testing.T) {
	// validation happens before the handler is touched
	c := &SerialClient{}
	require.Error(t, c.WriteSingleRegister(1, 0, []byte{1}))
	require.Error(t, c.WriteMultipleRegisters(1, 0, []byte{1, 2, 3}))
	require.Error(t, c.WriteMultipleRegisters(1, 0, nil))
}

// newUnopened builds a client whose port was opened with the read timeout,
// counting every port close instead of touching a device.
func newUnopened(read, write time.Duration) (*SerialClient, *int) {
	h := modbus.NewRTUClientHandler("/dev/ttyTEST0")
	h.Timeout = read
	closes := 0
	return &SerialClient{
		handler:      h,
		client:       modbus.NewClient(h),
		readTimeout:  read,
		writeTimeout: write,
		timeout:      read,
		closePort: func() error {
			closes++
			return nil
		},
	}, &closes
}

func TestPrepare_SwitchingTimeoutReopensPort(t *testing.T) {
	c, closes := newUnopened(300*time.Millisecond, 2*time.Second)

	require.NoError(t, c.prepare(3, c.readTimeout))
	assert.Equal(t, 0, *closes, "port already on the read timeout")
	assert.Equal(t, byte(3), c.handler.SlaveId)

	require.NoError(t, c.prepare(3, c.writeTimeout))
	assert.Equal(t, 2*time.Second, c.handler.Timeout)
	assert.Equal(t, 1, *closes)

	require.NoError(t, c.prepare(4, c.writeTimeout))
	assert.Equal(t, 1, *closes, "same timeout keeps the port open")

	require.NoError(t, c.prepare(4, c.readTimeout))
	assert.Equal(t, 300*time.Millisecond, c.handler.Timeout)
	assert.Equal(t, 2, *closes)
}

func TestPrepare_EqualTimeoutsNeverReopen(t *testing.T) {
	c, closes := newUnopened(time.Second, time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, c.prepare(1, c.writeTimeout))
		require.NoError(t, c.prepare(1, c.readTimeout))
	}
	assert.Equal(t, 0, *closes)
}

func TestClose_RefusesLaterCalls(t *testing.T) {
	c, closes := newUnopened(time.Second, 2*time.Second)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, 1, *closes)

	_, err := c.ReadCoils(1, 0, 8)
	require.ErrorIs(t, err, ErrClosed)
	_, err = c.ReadHoldingRegisters(1, 0, 2)
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, c.WriteSingleCoil(1, 0, true), ErrClosed)
	require.ErrorIs(t, c.WriteMultipleCoils(1, 0, []bool{true, false}), ErrClosed)
	require.ErrorIs(t, c.WriteSingleRegister(1, 0, []byte{0, 1}), ErrClosed)
	require.ErrorIs(t, c.WriteMultipleRegisters(1, 0, []byte{0, 1, 0, 2}), ErrClosed)
	assert.Equal(t, 1, *closes, "no call may reopen the port")
}
