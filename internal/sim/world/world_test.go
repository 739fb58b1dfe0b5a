package world

import (
	"errors"
	"testing"

	"deminer.ai/internal/sim/tuning"
)

func defaultWorld(t *testing.T, seed int64) *World {
	t.Helper()
	w, err := New(ConfigFromTuning("test", seed, tuning.Defaults()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func TestNew_PlacesPopulation(t *testing.T) {
	w := defaultWorld(t, 1)
	d := tuning.Defaults().Population

	if len(w.Robots()) != d.Robots || len(w.Obstacles()) != d.Obstacles || len(w.Quicksands()) != d.Quicksands || len(w.Mines()) != d.Mines {
		t.Fatalf("population mismatch: robots=%d obstacles=%d quicksands=%d mines=%d",
			len(w.Robots()), len(w.Obstacles()), len(w.Quicksands()), len(w.Mines()))
	}
	for _, o := range w.Obstacles() {
		if o.R < 10 || o.R >= 30 {
			t.Fatalf("obstacle radius %v out of [10,30)", o.R)
		}
	}
	ids := map[string]bool{}
	for _, r := range w.Robots() {
		if w.inHazard(r.X, r.Y) || !w.bounds.Interior(r.X, r.Y) {
			t.Fatalf("robot placed in hazard at (%v,%v)", r.X, r.Y)
		}
		if r.SightRadius != 2*r.Speed || r.BaseSpeed != r.Speed/2 {
			t.Fatalf("robot derived fields: %+v", r)
		}
		if ids[r.ID] {
			t.Fatalf("duplicate robot id %s", r.ID)
		}
		ids[r.ID] = true
	}
	for _, m := range w.Mines() {
		if w.inHazard(m.X, m.Y) {
			t.Fatalf("mine placed in hazard at (%v,%v)", m.X, m.Y)
		}
	}
	if !w.Running() {
		t.Fatalf("world with mines should be running")
	}
}

func TestNew_PlacementStalls(t *testing.T) {
	cfg := testConfig()
	cfg.Robots = 1
	cfg.Quicksands = 1
	cfg.HazardRadiusMin = 1000
	cfg.HazardRadiusMax = 1000
	cfg.PlacementAttempts = 50

	_, err := New(cfg)
	if !errors.Is(err, ErrPlacementStalled) {
		t.Fatalf("expected ErrPlacementStalled, got %v", err)
	}
}

func TestStep_RobotsStayInFreeSpace(t *testing.T) {
	w := defaultWorld(t, 7)

	prev := w.CollectMetrics()
	for i := 0; i < 600 && w.Running(); i++ {
		mustStep(t, w)

		for _, r := range w.Robots() {
			if !w.bounds.Interior(r.X, r.Y) {
				t.Fatalf("tick %d: robot %s outside arena at (%v,%v)", i, r.ID, r.X, r.Y)
			}
			for _, o := range w.Obstacles() {
				dx, dy := r.X-o.X, r.Y-o.Y
				if dx*dx+dy*dy < o.R*o.R {
					t.Fatalf("tick %d: robot %s inside obstacle", i, r.ID)
				}
			}
		}
		for _, m := range w.Markers() {
			if m.X < 0 || m.Y < 0 || m.X > 600 || m.Y > 600 {
				t.Fatalf("tick %d: marker outside arena: %+v", i, m)
			}
		}

		cur := w.CollectMetrics()
		if cur.MinesRemaining > prev.MinesRemaining {
			t.Fatalf("tick %d: mines increased %d -> %d", i, prev.MinesRemaining, cur.MinesRemaining)
		}
		if prev.MinesRemaining-cur.MinesRemaining != cur.MinesDefused-prev.MinesDefused {
			t.Fatalf("tick %d: mines %d->%d but defused %d->%d", i, prev.MinesRemaining, cur.MinesRemaining, prev.MinesDefused, cur.MinesDefused)
		}
		if cur.QuicksandSteps < prev.QuicksandSteps {
			t.Fatalf("tick %d: quicksand steps decreased", i)
		}
		prev = cur
	}
}

func TestCollectMetrics_Idempotent(t *testing.T) {
	w := defaultWorld(t, 3)
	for i := 0; i < 25; i++ {
		mustStep(t, w)
	}
	a := w.CollectMetrics()
	b := w.CollectMetrics()
	if a != b {
		t.Fatalf("metrics changed without a tick: %+v vs %+v", a, b)
	}
	d1 := w.stateDigest(w.CurrentTick())
	_ = w.CollectMetrics()
	if d2 := w.stateDigest(w.CurrentTick()); d1 != d2 {
		t.Fatalf("collecting metrics mutated state")
	}
}

func TestStep_Deterministic(t *testing.T) {
	a := defaultWorld(t, 42)
	b := defaultWorld(t, 42)
	for i := 0; i < 100; i++ {
		ta, da, err := a.StepOnce()
		if err != nil {
			t.Fatalf("a.StepOnce: %v", err)
		}
		tb, db, err := b.StepOnce()
		if err != nil {
			t.Fatalf("b.StepOnce: %v", err)
		}
		if ta != tb || da != db {
			t.Fatalf("tick %d diverged: %s vs %s", ta, da, db)
		}
	}

	c := defaultWorld(t, 43)
	if c.Robots()[0].ID == a.Robots()[0].ID {
		t.Fatalf("different seeds produced the same robot id")
	}
}

func TestDone_MaxTicks(t *testing.T) {
	cfg := ConfigFromTuning("test", 1, tuning.Defaults())
	cfg.MaxTicks = 3
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 3; i++ {
		if w.Done() {
			t.Fatalf("done too early at tick %d", i)
		}
		mustStep(t, w)
	}
	if !w.Done() {
		t.Fatalf("expected done after MaxTicks")
	}
}

func TestMetricsRecorder_Series(t *testing.T) {
	w := defaultWorld(t, 5)
	rec := NewMetricsRecorder()
	w.SetMetricsSink(rec)
	for i := 0; i < 10; i++ {
		mustStep(t, w)
	}
	for _, label := range SeriesLabels() {
		if got := len(rec.Series(label)); got != 10 {
			t.Fatalf("series %q len=%d", label, got)
		}
	}
	if rec.Series("nope") != nil {
		t.Fatalf("unknown label should have no series")
	}
	if rec.Ticks[9] != 9 {
		t.Fatalf("ticks=%v", rec.Ticks)
	}
}

func TestShapes(t *testing.T) {
	w := mustLayout(t, testConfig(), Layout{
		Robots:     []RobotPlacement{{X: 300, Y: 150, Heading: 1}},
		Obstacles:  []Obstacle{{X: 60, Y: 60, R: 12}},
		Quicksands: []Quicksand{{X: 540, Y: 540, R: 20}},
		Mines:      []Mine{{X: 120, Y: 480}},
		Markers:    []Marker{NewDangerMarker(10, 10), NewIndicationMarker(20, 20, 0)},
	})
	shapes := w.Shapes()
	if len(shapes) != 6 {
		t.Fatalf("shapes=%d want 6", len(shapes))
	}
	kinds := map[string]int{}
	for _, s := range shapes {
		kinds[s.Kind]++
		if s.X < 0 || s.X > 1 || s.Y < 0 || s.Y > 1 {
			t.Fatalf("shape not normalized: %+v", s)
		}
	}
	if kinds["obstacle"] != 1 || kinds["quicksand"] != 1 || kinds["mine"] != 1 || kinds["marker"] != 2 || kinds["robot"] != 1 {
		t.Fatalf("kinds=%v", kinds)
	}

	last := shapes[len(shapes)-1]
	if last.Shape != "arrowHead" || last.Layer != 3 || last.Angle == nil || *last.Angle != 1 {
		t.Fatalf("robot shape=%+v", last)
	}
	if last.X != 0.5 || last.Y != 0.25 {
		t.Fatalf("robot normalized to (%v,%v)", last.X, last.Y)
	}
	if shapes[0].Layer != 1 || shapes[0].R != 12 || shapes[0].Color != "Black" {
		t.Fatalf("obstacle shape=%+v", shapes[0])
	}
	if shapes[3].Color != "Red" || shapes[4].Color != "Green" {
		t.Fatalf("marker colors=%s,%s", shapes[3].Color, shapes[4].Color)
	}
}

func TestNew_DriftProbability(t *testing.T) {
	def := tuning.Defaults().Behavior.DriftProbability
	zeroTuning := tuning.Defaults()
	zeroTuning.Behavior.DriftProbability = 0

	cases := []struct {
		name string
		cfg  WorldConfig
		want float64
	}{
		{"unset takes default", WorldConfig{Width: 600, Height: 600, Speed: 15}, def},
		{"explicit value kept", WorldConfig{Width: 600, Height: 600, Speed: 15, DriftProbability: 0.25}, 0.25},
		{"disabled", WorldConfig{Width: 600, Height: 600, Speed: 15, DisableDrift: true, DriftProbability: 0.25}, 0},
		{"tuning zero disables", ConfigFromTuning("test", 1, zeroTuning), 0},
		{"tuning default", ConfigFromTuning("test", 1, tuning.Defaults()), def},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := mustLayout(t, tc.cfg, Layout{})
			if got := w.Config().DriftProbability; got != tc.want {
				t.Fatalf("drift=%v want %v", got, tc.want)
			}
			back, err := NewFromSnapshot(w.ExportSnapshot())
			if err != nil {
				t.Fatalf("NewFromSnapshot: %v", err)
			}
			if got := back.Config().DriftProbability; got != tc.want {
				t.Fatalf("drift after snapshot=%v want %v", got, tc.want)
			}
		})
	}
}
