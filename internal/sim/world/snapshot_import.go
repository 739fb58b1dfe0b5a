package world

import (
	"fmt"

	"deminer.ai/internal/persistence/snapshot"
)

// NewFromSnapshot rebuilds a world that continues exactly where the snapshot was taken.
func NewFromSnapshot(s snapshot.SnapshotV1) (*World, error) {
	if s.Header.Version != snapshot.Version {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Header.Version)
	}
	cfg := WorldConfig{
		ID:                 s.Header.WorldID,
		TickRateHz:         s.TickRate,
		Seed:               s.Seed,
		Width:              s.Width,
		Height:             s.Height,
		HazardRadiusMin:    s.HazardRadiusMin,
		HazardRadiusMax:    s.HazardRadiusMax,
		Robots:             s.Robots,
		Obstacles:          s.Obstacles,
		Quicksands:         s.Quicksands,
		Mines:              s.Mines,
		Speed:              s.Speed,
		DriftProbability:   s.DriftProbability,
		DisableDrift:       s.DisableDrift,
		PlacementAttempts:  s.PlacementAttempts,
		AvoidanceAttempts:  s.AvoidanceAttempts,
		SnapshotEveryTicks: s.SnapshotEveryTicks,
		MaxTicks:           s.MaxTicks,
	}
	cfg.applyDefaults()
	w := newWorld(cfg)
	if err := w.src.UnmarshalBinary(s.RNG); err != nil {
		return nil, fmt.Errorf("snapshot rng: %w", err)
	}

	for _, r := range s.RobotList {
		w.robots = append(w.robots, &Robot{
			ID:          r.ID,
			X:           r.X,
			Y:           r.Y,
			Heading:     r.Heading,
			Speed:       r.Speed,
			BaseSpeed:   r.BaseSpeed,
			SightRadius: r.SightRadius,
			Countdown:   Countdown{Mode: GateMode(r.CountdownMode), Remaining: r.CountdownRemaining},
		})
	}
	for _, o := range s.ObstacleList {
		w.obstacles = append(w.obstacles, Obstacle{X: o.X, Y: o.Y, R: o.R})
	}
	for _, q := range s.QuicksandList {
		w.quicksands = append(w.quicksands, Quicksand{X: q.X, Y: q.Y, R: q.R})
	}
	for _, m := range s.MineList {
		if !w.mines.insert(Handle(m.Handle), Mine{X: m.X, Y: m.Y}) {
			return nil, fmt.Errorf("snapshot mine handle %d out of order", m.Handle)
		}
	}
	for _, m := range s.MarkerList {
		purpose, err := ParseMarkerPurpose(m.Purpose)
		if err != nil {
			return nil, fmt.Errorf("snapshot marker %d: %w", m.Handle, err)
		}
		mk := Marker{X: m.X, Y: m.Y, Purpose: purpose, direction: m.Direction, hasDirection: m.HasDirection}
		if purpose == MarkerIndication && !mk.hasDirection {
			return nil, fmt.Errorf("snapshot marker %d: %w", m.Handle, ErrMissingDirection)
		}
		if !w.markers.insert(Handle(m.Handle), mk) {
			return nil, fmt.Errorf("snapshot marker handle %d out of order", m.Handle)
		}
	}
	if Handle(s.Counters.NextMine) > w.mines.next {
		w.mines.next = Handle(s.Counters.NextMine)
	}
	if Handle(s.Counters.NextMarker) > w.markers.next {
		w.markers.next = Handle(s.Counters.NextMarker)
	}
	w.minesDefused = s.Counters.MinesDefused
	w.quicksandSteps = s.Counters.QuicksandSteps
	w.running = s.Running
	w.tick.Store(s.Header.Tick)
	w.publishMetrics(0)
	return w, nil
}
