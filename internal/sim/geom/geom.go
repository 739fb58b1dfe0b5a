// Package geom holds the pure 2D helpers used by the robot pipeline.
package geom

import "math"

// Rand is the subset of *math/rand/v2.Rand used for random headings.
type Rand interface {
	Float64() float64
}

// RandomHeading draws a heading uniformly from [0, 2π).
func RandomHeading(r Rand) float64 {
	return 2 * math.Pi * r.Float64()
}

// Advance moves (x,y) by speed along heading.
func Advance(x, y, speed, heading float64) (float64, float64) {
	return x + speed*math.Cos(heading), y + speed*math.Sin(heading)
}

// SteerToward returns the next position and heading for a robot aiming at (tx,ty).
// A target closer than one step snaps: the robot lands exactly on it and faces a random heading.
func SteerToward(x, y, speed, tx, ty float64, r Rand) (nx, ny, heading float64) {
	d := math.Hypot(tx-x, ty-y)
	if d < speed || d == 0 {
		return tx, ty, RandomHeading(r)
	}
	heading = math.Acos(clamp((tx-x)/d, -1, 1))
	if ty < y {
		heading = -heading
	}
	nx, ny = Advance(x, y, speed, heading)
	return nx, ny, heading
}

// Dist2 is the squared euclidean distance.
func Dist2(ax, ay, bx, by float64) float64 {
	dx := ax - bx
	dy := ay - by
	return dx*dx + dy*dy
}

// WithinRadius reports whether (x,y) lies in the closed disk of radius r around (cx,cy).
func WithinRadius(x, y, cx, cy, r float64) bool {
	return Dist2(x, y, cx, cy) <= r*r
}

// Bounds is the arena rectangle [0,Width]x[0,Height].
type Bounds struct {
	Width  float64
	Height float64
}

// Interior reports whether (x,y) is strictly inside the arena.
func (b Bounds) Interior(x, y float64) bool {
	return x > 0 && y > 0 && x < b.Width && y < b.Height
}

// Normalize maps (x,y) onto [0,1]x[0,1].
func (b Bounds) Normalize(x, y float64) (float64, float64) {
	nx, ny := 0.0, 0.0
	if b.Width > 0 {
		nx = x / b.Width
	}
	if b.Height > 0 {
		ny = y / b.Height
	}
	return nx, ny
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
