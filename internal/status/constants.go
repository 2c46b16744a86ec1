// internal/status/constants.go
package status

// Unit health block layout constants.
// The block is served as input registers 0..SlotsPerUnit-1 of each unit.

// ---- BLOCK GEOMETRY ----

// SlotsPerUnit is the fixed number of registers in a health block.
const SlotsPerUnit = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the unit health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last error code seen while scanning the unit.
const SlotLastErrorCode = 1

// SlotSecondsInError holds how long (in seconds) the unit has been failing.
const SlotSecondsInError = 2

// Slots 3..11 are reserved and read as zero.
const SlotReservedStart = 3

// ---- STATION NAME ----

// The station name always lives at the end of the block.
const SlotNameStart = 12

// SlotNameSlots is the number of registers holding the name.
const SlotNameSlots = 8

// NameMaxChars is the longest name that fits: two ASCII bytes per register.
const NameMaxChars = 2 * SlotNameSlots

// ---- HEALTH CODES ----

// HealthUnknown means no block of the unit has been scanned yet.
const HealthUnknown uint16 = 0

// HealthOK means the last scanned block of the unit succeeded.
const HealthOK uint16 = 1

// HealthError means the last scanned block of the unit failed.
const HealthError uint16 = 2

// MaxSecondsInError is where SecondsInError saturates.
const MaxSecondsInError = 65535
