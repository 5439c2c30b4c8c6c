package config

import "errors"

// Sentinel errors for the config kinds named in spec §7.
var (
	// ErrKeyMissing is returned by Snapshot.Get for an unknown key.
	ErrKeyMissing = errors.New("config: key missing")

	// ErrReadOnly is returned when a sealed snapshot is mutated directly.
	ErrReadOnly = errors.New("config: read only")

	// ErrAfterStart is returned by Store.GetSnapshot once the store has
	// started its worker loop.
	ErrAfterStart = errors.New("config: get_snapshot called after start")

	// ErrSerialization wraps Save/Load I/O or decode failures.
	ErrSerialization = errors.New("config: serialization error")
)

// IsReserved reports whether key is a metadata key (spec §3: "Reserved
// keys beginning with an underscore") that never participates in
// fan-out or persistence.
func IsReserved(key string) bool {
	return len(key) > 0 && key[0] == '_'
}
