package world

import (
	"fmt"
	"math"

	"deminer.ai/internal/sim/geom"
)

type targetKind uint8

const (
	targetMarker targetKind = iota + 1
	targetMine
)

// pendingMove is a steer-toward result that replaces the commit when it survives the pipeline.
// A hold keeps the robot in place but leaves the heading to the rules.
type pendingMove struct {
	x, y    float64
	heading float64
	hold    bool

	kind   targetKind
	target Handle
}

// Decision is the patch a rule returns. Nil fields leave the running value untouched.
type Decision struct {
	Heading   *float64
	Speed     *float64
	Countdown *Countdown

	// SetPending replaces the pending move with Pending (which may be nil).
	SetPending bool
	Pending    *pendingMove
}

// stepCtx is the per-robot state threaded through the pipeline.
// tentX/tentY is the position implied by the pre-pipeline heading and speed; it never changes.
type stepCtx struct {
	w    *World
	r    *Robot
	tick uint64

	heading   float64
	speed     float64
	countdown Countdown
	pending   *pendingMove

	tentX, tentY float64
}

type rule struct {
	name  string
	apply func(c *stepCtx) (Decision, error)
}

// pipeline runs in order; later decisions override earlier ones per field.
var pipeline = []rule{
	{name: "indication", apply: ruleIndication},
	{name: "danger", apply: ruleDanger},
	{name: "robots", apply: ruleRobotAvoidance},
	{name: "obstacles", apply: ruleObstacles},
	{name: "boundary", apply: ruleBoundary},
	{name: "mines", apply: ruleMines},
	{name: "drift", apply: ruleDrift},
	{name: "quicksand", apply: ruleQuicksand},
}

func (c *stepCtx) apply(d Decision) {
	if d.Heading != nil {
		c.heading = *d.Heading
	}
	if d.Speed != nil {
		c.speed = *d.Speed
	}
	if d.Countdown != nil {
		c.countdown = *d.Countdown
	}
	if d.SetPending {
		c.pending = d.Pending
	}
}

func (w *World) stepRobot(tick uint64, r *Robot) error {
	c := &stepCtx{
		w:         w,
		r:         r,
		tick:      tick,
		heading:   r.Heading,
		speed:     r.Speed,
		countdown: r.Countdown,
	}
	c.tentX, c.tentY = geom.Advance(r.X, r.Y, r.Speed, r.Heading)

	for _, rl := range pipeline {
		d, err := rl.apply(c)
		if err != nil {
			return fmt.Errorf("%s: %w", rl.name, err)
		}
		c.apply(d)
	}
	return c.commit()
}

func (c *stepCtx) sees(x, y float64) bool {
	return geom.WithinRadius(x, y, c.r.X, c.r.Y, c.r.SightRadius)
}

func (c *stepCtx) steer(kind targetKind, h Handle, tx, ty float64) *pendingMove {
	x, y, heading := geom.SteerToward(c.r.X, c.r.Y, c.speed, tx, ty, c.w.rng)
	return &pendingMove{x: x, y: y, heading: heading, kind: kind, target: h}
}

// holdIfTargeting turns a steer toward the entity this robot just consumed into a hold
// on the spot. Any other pending move is returned unchanged.
func (c *stepCtx) holdIfTargeting(p *pendingMove, kind targetKind, h Handle) *pendingMove {
	if p == nil || p.kind != kind || p.target != h {
		return p
	}
	return &pendingMove{x: c.r.X, y: c.r.Y, hold: true, kind: kind, target: h}
}

func ruleIndication(c *stepCtx) (Decision, error) {
	if !c.countdown.Open() {
		next := c.countdown.Tick()
		return Decision{Countdown: &next}, nil
	}

	w, r := c.w, c.r
	var d Decision
	pend := c.pending
	for _, h := range w.markers.handles() {
		m, ok := w.markers.get(h)
		if !ok || m.Purpose != MarkerIndication {
			continue
		}
		if c.sees(m.X, m.Y) && w.otherRobotOff(r, m.X, m.Y) {
			pend = c.steer(targetMarker, h, m.X, m.Y)
			d.SetPending = true
		}
		if r.at(m.X, m.Y) {
			dir, _ := m.Direction()
			heading := dir + math.Pi/2
			if w.rng.IntN(2) == 1 {
				heading = dir - math.Pi/2
			}
			d.Heading = &heading
			if w.markers.remove(h) {
				w.audit(c.tick, r.ID, "CONSUME_MARKER", m.X, m.Y, "INDICATION")
			}
			if held := c.holdIfTargeting(pend, targetMarker, h); held != pend {
				pend = held
				d.SetPending = true
			}
		}
	}
	d.Pending = pend
	return d, nil
}

func ruleDanger(c *stepCtx) (Decision, error) {
	var d Decision
	c.w.markers.each(func(_ Handle, m Marker) {
		if m.Purpose == MarkerDanger && c.sees(m.X, m.Y) {
			heading := math.Pi
			d.Heading = &heading
		}
	})
	return d, nil
}

func ruleRobotAvoidance(c *stepCtx) (Decision, error) {
	var d Decision
	for _, o := range c.w.robots {
		if o == c.r || !c.sees(o.X, o.Y) {
			continue
		}
		// The tentative step is exactly r.Speed long. Comparing speeds keeps the
		// full-speed case (step == reach) from hinging on rounding.
		if c.r.Speed <= 2*o.BaseSpeed {
			heading := geom.RandomHeading(c.w.rng)
			d.Heading = &heading
		}
	}
	return d, nil
}

// ruleObstacles resamples the heading while the test point sits in an obstacle.
// The test point starts at the tentative position and carries over from one obstacle to the next.
func ruleObstacles(c *stepCtx) (Decision, error) {
	var d Decision
	px, py := c.tentX, c.tentY
	budget := c.w.cfg.AvoidanceAttempts
	for _, o := range c.w.obstacles {
		for n := 0; o.Contains(px, py); n++ {
			if n >= budget {
				return d, fmt.Errorf("obstacle at (%.1f,%.1f) after %d attempts: %w", o.X, o.Y, n, ErrAvoidanceStalled)
			}
			heading := geom.RandomHeading(c.w.rng)
			d.Heading = &heading
			px, py = geom.Advance(c.r.X, c.r.Y, c.speed, heading)
		}
	}
	return d, nil
}

func ruleBoundary(c *stepCtx) (Decision, error) {
	var d Decision
	px, py := c.tentX, c.tentY
	budget := c.w.cfg.AvoidanceAttempts
	for n := 0; !c.w.bounds.Interior(px, py); n++ {
		if n >= budget {
			return d, fmt.Errorf("arena boundary after %d attempts: %w", n, ErrAvoidanceStalled)
		}
		heading := geom.RandomHeading(c.w.rng)
		d.Heading = &heading
		px, py = geom.Advance(c.r.X, c.r.Y, c.speed, heading)
	}
	return d, nil
}

func ruleMines(c *stepCtx) (Decision, error) {
	w, r := c.w, c.r
	var d Decision
	pend := c.pending
	for _, h := range w.mines.handles() {
		m, ok := w.mines.get(h)
		if !ok {
			continue
		}
		if c.sees(m.X, m.Y) && w.otherRobotOff(r, m.X, m.Y) {
			pend = c.steer(targetMine, h, m.X, m.Y)
			d.SetPending = true
		}
		if r.at(m.X, m.Y) && w.mines.remove(h) {
			w.minesDefused++
			w.markers.add(NewIndicationMarker(r.X, r.Y, c.heading))
			armed := c.countdown.Arm(int(r.BaseSpeed))
			d.Countdown = &armed
			w.audit(c.tick, r.ID, "DEFUSE_MINE", m.X, m.Y, "")
			w.audit(c.tick, r.ID, "DROP_INDICATION", r.X, r.Y, fmt.Sprintf("direction=%.4f", c.heading))
			if held := c.holdIfTargeting(pend, targetMine, h); held != pend {
				pend = held
				d.SetPending = true
			}
		}
	}
	d.Pending = pend
	return d, nil
}

// ruleDrift always consumes one draw so the random stream does not depend on the probability.
func ruleDrift(c *stepCtx) (Decision, error) {
	if c.w.rng.Float64() >= c.w.cfg.DriftProbability {
		return Decision{}, nil
	}
	heading := geom.RandomHeading(c.w.rng)
	return Decision{Heading: &heading}, nil
}

func ruleQuicksand(c *stepCtx) (Decision, error) {
	w, r := c.w, c.r
	inside := false
	for _, q := range w.quicksands {
		if !q.Contains(r.X, r.Y) {
			continue
		}
		inside = true
		w.quicksandSteps++
		if !q.Contains(c.tentX, c.tentY) {
			w.markers.add(NewDangerMarker(r.X, r.Y))
			w.audit(c.tick, r.ID, "DROP_DANGER", r.X, r.Y, "leaving quicksand")
		}
	}
	speed := 2 * r.BaseSpeed
	if inside {
		speed = r.BaseSpeed
	}
	return Decision{Speed: &speed}, nil
}

// commit moves the robot. A surviving pending move wins; otherwise the robot advances
// along the final heading at the final speed. Either way the landing point must be
// inside the arena and outside every obstacle, resampling the heading if it is not.
func (c *stepCtx) commit() error {
	w, r := c.w, c.r
	x, y, heading := 0.0, 0.0, c.heading
	if p := c.pending; p != nil && w.free(p.x, p.y) {
		x, y = p.x, p.y
		if !p.hold {
			heading = p.heading
		}
	} else {
		x, y = geom.Advance(r.X, r.Y, c.speed, heading)
		for n := 0; !w.free(x, y); n++ {
			if n >= w.cfg.AvoidanceAttempts {
				return fmt.Errorf("commit from (%.1f,%.1f) after %d attempts: %w", r.X, r.Y, n, ErrAvoidanceStalled)
			}
			heading = geom.RandomHeading(w.rng)
			x, y = geom.Advance(r.X, r.Y, c.speed, heading)
		}
	}
	r.X, r.Y, r.Heading = x, y, heading
	r.Speed = c.speed
	r.Countdown = c.countdown
	return nil
}
