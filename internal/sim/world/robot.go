package world

// GateMode is the marker gate of a robot.
type GateMode uint8

const (
	// GateOpen: INDICATION markers are considered.
	GateOpen GateMode = iota
	// GateCooling: markers are ignored and Remaining counts down.
	GateCooling
)

func (m GateMode) String() string {
	if m == GateCooling {
		return "COOLING"
	}
	return "OPEN"
}

// Countdown is the post-defusal grace period.
// Transitions: Arm(n>0) -> COOLING(n); Tick in COOLING decrements and reopens at 0.
type Countdown struct {
	Mode      GateMode
	Remaining int
}

func (c Countdown) Arm(n int) Countdown {
	if n <= 0 {
		return Countdown{Mode: GateOpen}
	}
	return Countdown{Mode: GateCooling, Remaining: n}
}

func (c Countdown) Tick() Countdown {
	if c.Mode != GateCooling {
		return c
	}
	c.Remaining--
	if c.Remaining <= 0 {
		return Countdown{Mode: GateOpen}
	}
	return c
}

func (c Countdown) Open() bool { return c.Mode == GateOpen }

type Robot struct {
	ID string

	X, Y    float64
	Heading float64

	Speed       float64
	BaseSpeed   float64
	SightRadius float64

	Countdown Countdown
}

func newRobot(id string, x, y, heading, speed float64) *Robot {
	return &Robot{
		ID:          id,
		X:           x,
		Y:           y,
		Heading:     heading,
		Speed:       speed,
		BaseSpeed:   speed / 2,
		SightRadius: 2 * speed,
	}
}

func (r *Robot) at(x, y float64) bool { return r.X == x && r.Y == y }
