package graph

import "errors"

// Sentinel errors for graph construction. The Register* methods return
// ErrUnknownStage and ErrDuplicatePrimary (wrapped with the offending id
// or name); Init returns ErrCycle, ErrAlreadyInit, and Start ErrNotInit
// (spec §4.5: "connections form a DAG; cycles are rejected at init").
var (
	ErrUnknownStage     = errors.New("graph: unknown stage id")
	ErrDuplicatePrimary = errors.New("graph: stage already has a primary input")
	ErrCycle            = errors.New("graph: connections form a cycle")
	ErrAlreadyInit      = errors.New("graph: already initialized")
	ErrNotInit          = errors.New("graph: not initialized")
)
