package geom

import (
	"math"
	"testing"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func TestAdvance_ZeroSpeedIsNoop(t *testing.T) {
	for _, h := range []float64{0, 0.3, math.Pi / 2, math.Pi, -2.1, 7.5} {
		x, y := Advance(12.5, 40.25, 0, h)
		if x != 12.5 || y != 40.25 {
			t.Fatalf("heading=%v moved to (%v,%v)", h, x, y)
		}
	}
}

func TestAdvance_AlongAxes(t *testing.T) {
	x, y := Advance(10, 10, 5, 0)
	if math.Abs(x-15) > 1e-9 || math.Abs(y-10) > 1e-9 {
		t.Fatalf("heading 0: got (%v,%v)", x, y)
	}
	x, y = Advance(10, 10, 5, math.Pi/2)
	if math.Abs(x-10) > 1e-9 || math.Abs(y-15) > 1e-9 {
		t.Fatalf("heading pi/2: got (%v,%v)", x, y)
	}
}

func TestSteerToward_SnapsWhenWithinOneStep(t *testing.T) {
	cases := []struct {
		name   string
		x, y   float64
		tx, ty float64
		speed  float64
	}{
		{"same point", 5, 5, 5, 5, 3},
		{"close", 5, 5, 6, 7, 3},
		{"zero speed same point", 5, 5, 5, 5, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			nx, ny, h := SteerToward(tc.x, tc.y, tc.speed, tc.tx, tc.ty, fixedRand(0.25))
			if nx != tc.tx || ny != tc.ty {
				t.Fatalf("got (%v,%v), want target (%v,%v)", nx, ny, tc.tx, tc.ty)
			}
			if math.Abs(h-math.Pi/2) > 1e-12 {
				t.Fatalf("heading=%v, want random draw pi/2", h)
			}
		})
	}
}

func TestSteerToward_HeadingSign(t *testing.T) {
	_, _, up := SteerToward(0, 0, 1, 10, 10, fixedRand(0))
	if math.Abs(up-math.Pi/4) > 1e-9 {
		t.Fatalf("up heading=%v", up)
	}
	nx, ny, down := SteerToward(0, 0, 1, 10, -10, fixedRand(0))
	if math.Abs(down+math.Pi/4) > 1e-9 {
		t.Fatalf("down heading=%v", down)
	}
	if math.Abs(math.Hypot(nx, ny)-1) > 1e-9 || ny >= 0 {
		t.Fatalf("step=(%v,%v)", nx, ny)
	}
}

func TestBounds_InteriorIsStrict(t *testing.T) {
	b := Bounds{Width: 600, Height: 600}
	if b.Interior(0, 10) || b.Interior(10, 600) || b.Interior(-1, 5) {
		t.Fatal("edge or outside point reported as interior")
	}
	if !b.Interior(300, 300) {
		t.Fatal("center not interior")
	}
	nx, ny := b.Normalize(150, 450)
	if nx != 0.25 || ny != 0.75 {
		t.Fatalf("normalize=(%v,%v)", nx, ny)
	}
}

func TestWithinRadius_Inclusive(t *testing.T) {
	if !WithinRadius(3, 4, 0, 0, 5) {
		t.Fatal("point on circle should be within")
	}
	if WithinRadius(3, 4.01, 0, 0, 5) {
		t.Fatal("point outside reported within")
	}
}
