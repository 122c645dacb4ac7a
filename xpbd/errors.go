package xpbd

import "errors"

var (
	// ErrEmptyTopology is returned when a build has zero particles or zero
	// constraints. The cloth is left unbuilt rather than half-simulated.
	ErrEmptyTopology = errors.New("topology has no particles or constraints")

	// ErrInvalidConstraint flags a constraint with equal or out-of-range
	// endpoints.
	ErrInvalidConstraint = errors.New("invalid constraint")

	// ErrInvalidTriangle flags a malformed triangle list.
	ErrInvalidTriangle = errors.New("invalid triangle list")

	// ErrWrongMode is returned when the automatic entry point is used on a
	// manual cloth or vice versa.
	ErrWrongMode = errors.New("wrong step mode")

	// ErrNilTopology rejects a topology-changed notification without a
	// topology.
	ErrNilTopology = errors.New("nil topology")

	// ErrDisabled is returned when stepping a disabled or closed cloth.
	ErrDisabled = errors.New("simulator disabled")
)
