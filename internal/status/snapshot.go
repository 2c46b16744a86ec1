// internal/status/snapshot.go
package status

// Snapshot is the health of one unit as seen by the scanner.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16

	// Name is the configured station name, empty when none.
	Name string
}
