package world

import (
	"deminer.ai/internal/persistence/snapshot"
)

// ExportSnapshot captures the full state. Header.Tick is the next tick to execute.
func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	rngState, _ := w.src.MarshalBinary()

	s := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			WorldID: w.cfg.ID,
			Tick:    w.tick.Load(),
		},
		Seed:               w.cfg.Seed,
		TickRate:           w.cfg.TickRateHz,
		Width:              w.cfg.Width,
		Height:             w.cfg.Height,
		HazardRadiusMin:    w.cfg.HazardRadiusMin,
		HazardRadiusMax:    w.cfg.HazardRadiusMax,
		Robots:             w.cfg.Robots,
		Obstacles:          w.cfg.Obstacles,
		Quicksands:         w.cfg.Quicksands,
		Mines:              w.cfg.Mines,
		Speed:              w.cfg.Speed,
		DriftProbability:   w.cfg.DriftProbability,
		DisableDrift:       w.cfg.DisableDrift,
		PlacementAttempts:  w.cfg.PlacementAttempts,
		AvoidanceAttempts:  w.cfg.AvoidanceAttempts,
		SnapshotEveryTicks: w.cfg.SnapshotEveryTicks,
		MaxTicks:           w.cfg.MaxTicks,
		RNG:                rngState,
		Running:            w.running,
		Counters: snapshot.CountersV1{
			MinesDefused:   w.minesDefused,
			QuicksandSteps: w.quicksandSteps,
			NextMine:       uint64(w.mines.next),
			NextMarker:     uint64(w.markers.next),
		},
	}

	s.RobotList = make([]snapshot.RobotV1, 0, len(w.robots))
	for _, r := range w.robots {
		s.RobotList = append(s.RobotList, snapshot.RobotV1{
			ID:                 r.ID,
			X:                  r.X,
			Y:                  r.Y,
			Speed:              r.Speed,
			BaseSpeed:          r.BaseSpeed,
			SightRadius:        r.SightRadius,
			Heading:            r.Heading,
			CountdownMode:      uint8(r.Countdown.Mode),
			CountdownRemaining: r.Countdown.Remaining,
		})
	}
	for _, o := range w.obstacles {
		s.ObstacleList = append(s.ObstacleList, snapshot.DiskV1{X: o.X, Y: o.Y, R: o.R})
	}
	for _, q := range w.quicksands {
		s.QuicksandList = append(s.QuicksandList, snapshot.DiskV1{X: q.X, Y: q.Y, R: q.R})
	}
	w.mines.each(func(h Handle, m Mine) {
		s.MineList = append(s.MineList, snapshot.MineV1{Handle: uint64(h), X: m.X, Y: m.Y})
	})
	w.markers.each(func(h Handle, m Marker) {
		s.MarkerList = append(s.MarkerList, snapshot.MarkerV1{
			Handle:       uint64(h),
			X:            m.X,
			Y:            m.Y,
			Purpose:      m.Purpose.String(),
			Direction:    m.direction,
			HasDirection: m.hasDirection,
		})
	})
	return s
}
