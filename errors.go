// errors.go - Error taxonomy for the VT100 core
//
// Constructors and mutating operations return plain (T, error), anchored
// to sentinel errors wrapped with fmt.Errorf("%w: ...", ...) so callers
// can use errors.Is/errors.As.

package main

import "errors"

var (
	// ErrBusOverlap: add_blocks would overwrite an existing non-NONE block.
	ErrBusOverlap = errors.New("bus: block overlap")
	// ErrBusMisaligned: addr or size is not a multiple of the bus block size.
	ErrBusMisaligned = errors.New("bus: misaligned block request")
	// ErrPortCollision: a listener already exists for that port/direction.
	ErrPortCollision = errors.New("ports: listener collision")
	// ErrStateMismatch: a load_state device id, version, or length mismatch.
	ErrStateMismatch = errors.New("state: device id or version mismatch")
	// ErrPeerNotFound: a configured UART peer id could not be resolved.
	ErrPeerNotFound = errors.New("uart: peer device not found")
	// ErrConfigDuplicateID: two devices were configured with the same id.
	ErrConfigDuplicateID = errors.New("config: duplicate device id")
	// ErrConfigMissingField: a required configuration field was not set.
	ErrConfigMissingField = errors.New("config: missing required field")
)
