package world

import "errors"

var (
	// ErrMissingDirection is returned when an INDICATION marker is built without a direction.
	ErrMissingDirection = errors.New("indication marker requires a direction")

	// ErrPlacementStalled is returned when rejection sampling at construction exhausts its budget.
	ErrPlacementStalled = errors.New("placement stalled")

	// ErrAvoidanceStalled is returned when a robot cannot find a valid heading within its budget.
	ErrAvoidanceStalled = errors.New("avoidance stalled")
)
