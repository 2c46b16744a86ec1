// internal/scanner/scanner_test.go
package scanner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-rtu-gateway/internal/arbiter"
	"github.com/tamzrod/modbus-rtu-gateway/internal/codec"
	"github.com/tamzrod/modbus-rtu-gateway/internal/image"
	"github.com/tamzrod/modbus-rtu-gateway/internal/logging"
	"github.com/tamzrod/modbus-rtu-gateway/internal/rtu/rtutest"
)

type fakeHealth struct {
	seen []error
}

func (f *fakeHealth) Observe(unit uint8, err error) { f.seen = append(f.seen, err) }

func newTestScanner(t *testing.T, interval time.Duration, blocks []ReadBlock) (*Scanner, *rtutest.Client, *image.Image, *fakeHealth) {
	t.Helper()
	img, err := image.New(codec.BigEndian, []uint8{1, 2})
	require.NoError(t, err)

	fake := rtutest.New()
	health := &fakeHealth{}
	s, err := New(Config{Interval: interval, Blocks: blocks}, arbiter.New(), fake, img, health, logging.Discard())
	require.NoError(t, err)
	return s, fake, img, health
}

func TestScanOnce_Success(t *testing.T) {
	s, fake, img, health := newTestScanner(t, time.Second, []ReadBlock{
		{Function: Coil, Unit: 1, Start: 3, Length: 4},
		{Function: HoldingRegister, Unit: 2, Start: 10, Length: 2},
	})

	dev1 := fake.Device(1)
	dev1.Coils[3] = true
	dev1.Coils[5] = true
	dev2 := fake.Device(2)
	copy(dev2.Registers[20:], []byte{0x00, 0x07, 0xFF, 0xFE})

	res := s.ScanOnce(context.Background())
	require.False(t, res.Interrupted)
	require.Len(t, res.Blocks, 2)
	assert.Zero(t, res.Failed())
	assert.Equal(t, []error{nil, nil}, health.seen)

	u1, _ := img.Unit(1)
	coils, _ := u1.Coils.Read(3, 4)
	assert.Equal(t, []bool{true, false, true, false}, coils)

	u2, _ := img.Unit(2)
	regs, _ := u2.Registers.Read(10, 2)
	assert.Equal(t, []int16{7, -2}, regs)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, rtutest.OpReadCoils, calls[0].Op)
	assert.Equal(t, rtutest.OpReadHoldingRegisters, calls[1].Op)
}

func TestScanOnce_PartialFailureIsolation(t *testing.T) {
	s, fake, img, health := newTestScanner(t, time.Second, []ReadBlock{
		{Function: HoldingRegister, Unit: 1, Start: 0, Length: 1},
		{Function: HoldingRegister, Unit: 1, Start: 100, Length: 1},
		{Function: HoldingRegister, Unit: 1, Start: 200, Length: 1},
	})
	fake.Fail = func(c rtutest.Call) error {
		if c.Start == 100 {
			return errors.New("serial timeout")
		}
		return nil
	}
	dev := fake.Device(1)
	dev.Registers[1] = 11
	dev.Registers[201] = 22
	dev.Registers[401] = 33

	res := s.ScanOnce(context.Background())

	require.Len(t, res.Blocks, 3)
	assert.NoError(t, res.Blocks[0].Err)
	assert.Error(t, res.Blocks[1].Err)
	assert.False(t, res.Blocks[1].Skipped)
	assert.NoError(t, res.Blocks[2].Err)
	assert.Len(t, fake.Calls(), 3)
	assert.Len(t, health.seen, 3)

	u, _ := img.Unit(1)
	got, _ := u.Registers.Read(0, 1)
	assert.Equal(t, []int16{11}, got)
	got, _ = u.Registers.Read(100, 1)
	assert.Equal(t, []int16{0}, got)
	got, _ = u.Registers.Read(200, 1)
	assert.Equal(t, []int16{33}, got)
}

func TestRun_ContinuesAfterFailingBlock(t *testing.T) {
	s, fake, _, _ := newTestScanner(t, time.Millisecond, []ReadBlock{
		{Function: Coil, Unit: 1, Start: 0, Length: 8},
		{Function: Coil, Unit: 1, Start: 8, Length: 8},
		{Function: Coil, Unit: 1, Start: 16, Length: 8},
	})
	fake.Fail = func(c rtutest.Call) error {
		if c.Start == 8 {
			return errors.New("crc mismatch")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	var seen int32
	fake.Hook = func(c rtutest.Call) {
		// stop after the first block of the second cycle
		if atomic.AddInt32(&seen, 1) == 4 {
			cancel()
		}
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scanner did not stop")
	}

	calls := fake.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, []uint16{0, 8, 16, 0}, []uint16{calls[0].Start, calls[1].Start, calls[2].Start, calls[3].Start})
}

func TestScanOnce_ConfigErrorsAreSkipped(t *testing.T) {
	s, fake, _, health := newTestScanner(t, time.Second, []ReadBlock{
		{Function: "discrete_input", Unit: 1, Start: 0, Length: 1},
		{Function: Coil, Unit: 1, Start: 0, Length: 0},
		{Function: Coil, Unit: 1, Start: 0, Length: 1},
	})

	res := s.ScanOnce(context.Background())
	require.Len(t, res.Blocks, 3)
	assert.ErrorIs(t, res.Blocks[0].Err, ErrUnknownFunction)
	assert.True(t, res.Blocks[0].Skipped)
	assert.ErrorIs(t, res.Blocks[1].Err, ErrZeroLength)
	assert.True(t, res.Blocks[1].Skipped)
	assert.NoError(t, res.Blocks[2].Err)

	assert.Len(t, fake.Calls(), 1)
	assert.Len(t, health.seen, 1)
}

func TestScanOnce_UnknownUnitFailsBlockOnly(t *testing.T) {
	s, fake, _, _ := newTestScanner(t, time.Second, []ReadBlock{
		{Function: Coil, Unit: 9, Start: 0, Length: 1},
		{Function: Coil, Unit: 1, Start: 0, Length: 1},
	})

	res := s.ScanOnce(context.Background())
	require.Len(t, res.Blocks, 2)
	assert.ErrorIs(t, res.Blocks[0].Err, image.ErrUnknownUnit)
	assert.NoError(t, res.Blocks[1].Err)
	assert.Len(t, fake.Calls(), 1)
}

func TestScanOnce_EmptyIsNoop(t *testing.T) {
	s, fake, _, _ := newTestScanner(t, time.Second, nil)
	res := s.ScanOnce(context.Background())
	assert.Empty(t, res.Blocks)
	assert.False(t, res.Interrupted)
	assert.Empty(t, fake.Calls())
}

func TestShutdown_BetweenBlocks(t *testing.T) {
	s, fake, _, _ := newTestScanner(t, time.Hour, []ReadBlock{
		{Function: Coil, Unit: 1, Start: 0, Length: 1},
		{Function: Coil, Unit: 1, Start: 1, Length: 1},
		{Function: Coil, Unit: 1, Start: 2, Length: 1},
	})

	ctx, cancel := context.WithCancel(context.Background())
	fake.Hook = func(c rtutest.Call) {
		if c.Start == 0 {
			cancel() // signalled while the first block is on the bus
		}
	}

	start := time.Now()
	require.NoError(t, s.Run(ctx))

	// the hour-long interval was never slept and no block after the signal went out
	assert.Less(t, time.Since(start), time.Minute)
	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, uint16(0), calls[0].Start)
}

func TestShutdown_WhileWaitingForBus(t *testing.T) {
	s, fake, _, _ := newTestScanner(t, time.Hour, []ReadBlock{
		{Function: Coil, Unit: 1, Start: 0, Length: 1},
	})

	// someone else holds the bus
	require.NoError(t, s.bus.Acquire(context.Background()))
	defer s.bus.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res := s.ScanOnce(ctx)
	assert.True(t, res.Interrupted)
	assert.Empty(t, res.Blocks)
	assert.Empty(t, fake.Calls())
}

func TestNew_Validation(t *testing.T) {
	img, _ := image.New(codec.BigEndian, []uint8{1})
	_, err := New(Config{Interval: 0}, arbiter.New(), rtutest.New(), img, nil, nil)
	require.Error(t, err)
	_, err = New(Config{Interval: time.Second}, nil, rtutest.New(), img, nil, nil)
	require.Error(t, err)
}
