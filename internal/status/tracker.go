// internal/status/tracker.go
package status

import (
	"errors"
	"time"

	"github.com/goburrow/modbus"
	"github.com/puzpuzpuz/xsync/v3"
)

type unitState struct {
	health    uint16
	lastCode  uint16
	failingAt time.Time
}

// Tracker keeps per-unit scan health. Safe for concurrent use.
type Tracker struct {
	units *xsync.MapOf[uint8, unitState]
	names map[uint8]string // read-only after construction
	now   func() time.Time
}

// NewTracker builds a tracker. names may be nil.
func NewTracker(names map[uint8]string) *Tracker {
	copied := make(map[uint8]string, len(names))
	for id, n := range names {
		copied[id] = n
	}
	return &Tracker{
		units: xsync.NewMapOf[uint8, unitState](),
		names: copied,
		now:   time.Now,
	}
}

// Observe records the outcome of one scanned block of a unit.
// Success resets the error code and the error clock.
func (t *Tracker) Observe(unit uint8, err error) {
	now := t.now()
	t.units.Compute(unit, func(old unitState, loaded bool) (unitState, bool) {
		if err == nil {
			return unitState{health: HealthOK}, false
		}
		next := unitState{
			health:    HealthError,
			lastCode:  ErrorCode(err),
			failingAt: old.failingAt,
		}
		if old.health != HealthError {
			next.failingAt = now
		}
		return next, false
	})
}

// Snapshot returns the current health of a unit.
// Units never observed report HealthUnknown.
func (t *Tracker) Snapshot(unit uint8) Snapshot {
	st, ok := t.units.Load(unit)
	if !ok {
		return Snapshot{Health: HealthUnknown, Name: t.names[unit]}
	}

	s := Snapshot{Health: st.health, LastErrorCode: st.lastCode, Name: t.names[unit]}
	if st.health == HealthError {
		secs := int64(t.now().Sub(st.failingAt) / time.Second)
		switch {
		case secs > MaxSecondsInError:
			// HARD INVARIANT: seconds_in_error MUST NOT wrap
			s.SecondsInError = MaxSecondsInError
		case secs > 0:
			s.SecondsInError = uint16(secs)
		}
	}
	return s
}

// ErrorCode extracts a best-effort uint16 code from an error without assuming concrete types.
// Modbus exceptions report their exception code; anything else returns 1 (generic error).
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		return uint16(mbErr.ExceptionCode)
	}

	type coderA interface{ Code() uint16 }
	type coderB interface{ ErrorCode() uint16 }

	var a coderA
	if errors.As(err, &a) {
		return a.Code()
	}
	var b coderB
	if errors.As(err, &b) {
		return b.ErrorCode()
	}

	return 1
}
