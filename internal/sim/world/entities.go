package world

import (
	"fmt"

	"deminer.ai/internal/sim/geom"
)

// Obstacle is an impassable disk.
type Obstacle struct {
	X, Y, R float64
}

func (o Obstacle) Contains(x, y float64) bool { return geom.WithinRadius(x, y, o.X, o.Y, o.R) }

// Quicksand is a disk that slows robots standing in it.
type Quicksand struct {
	X, Y, R float64
}

func (q Quicksand) Contains(x, y float64) bool { return geom.WithinRadius(x, y, q.X, q.Y, q.R) }

type Mine struct {
	X, Y float64
}

type MarkerPurpose uint8

const (
	MarkerDanger MarkerPurpose = iota + 1
	MarkerIndication
)

func (p MarkerPurpose) String() string {
	switch p {
	case MarkerDanger:
		return "DANGER"
	case MarkerIndication:
		return "INDICATION"
	default:
		return fmt.Sprintf("MarkerPurpose(%d)", uint8(p))
	}
}

func ParseMarkerPurpose(s string) (MarkerPurpose, error) {
	switch s {
	case "DANGER":
		return MarkerDanger, nil
	case "INDICATION":
		return MarkerIndication, nil
	default:
		return 0, fmt.Errorf("unknown marker purpose %q", s)
	}
}

// Marker is a stigmergic signal dropped by a robot.
// Only INDICATION markers carry a direction.
type Marker struct {
	X, Y    float64
	Purpose MarkerPurpose

	direction    float64
	hasDirection bool
}

// NewMarker validates the purpose/direction pairing.
func NewMarker(x, y float64, purpose MarkerPurpose, direction *float64) (Marker, error) {
	switch purpose {
	case MarkerDanger:
		return Marker{X: x, Y: y, Purpose: purpose}, nil
	case MarkerIndication:
		if direction == nil {
			return Marker{}, ErrMissingDirection
		}
		return Marker{X: x, Y: y, Purpose: purpose, direction: *direction, hasDirection: true}, nil
	default:
		return Marker{}, fmt.Errorf("new marker: unknown purpose %d", uint8(purpose))
	}
}

func NewDangerMarker(x, y float64) Marker {
	return Marker{X: x, Y: y, Purpose: MarkerDanger}
}

func NewIndicationMarker(x, y, direction float64) Marker {
	return Marker{X: x, Y: y, Purpose: MarkerIndication, direction: direction, hasDirection: true}
}

func (m Marker) Direction() (float64, bool) { return m.direction, m.hasDirection }
