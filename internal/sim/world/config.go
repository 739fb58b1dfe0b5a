package world

import (
	"deminer.ai/internal/sim/tuning"
)

type WorldConfig struct {
	ID         string
	TickRateHz int
	Seed       int64

	Width           float64
	Height          float64
	HazardRadiusMin float64
	HazardRadiusMax float64

	Robots     int
	Obstacles  int
	Quicksands int
	Mines      int
	Speed      float64

	// DriftProbability is the per-tick chance of a random heading change.
	// Zero means the tuning default; set DisableDrift to turn drift off.
	DriftProbability  float64
	DisableDrift      bool
	PlacementAttempts int
	AvoidanceAttempts int

	// SnapshotEveryTicks controls periodic snapshot export (0 disables).
	SnapshotEveryTicks int
	// MaxTicks stops stepping once reached (0 means run until all mines are cleared).
	MaxTicks int
}

// ConfigFromTuning maps the tuning file onto a world config.
func ConfigFromTuning(id string, seed int64, t tuning.Tuning) WorldConfig {
	return WorldConfig{
		ID:                 id,
		TickRateHz:         t.TickRateHz,
		Seed:               seed,
		Width:              t.Arena.Width,
		Height:             t.Arena.Height,
		HazardRadiusMin:    t.Arena.HazardRadiusMin,
		HazardRadiusMax:    t.Arena.HazardRadiusMax,
		Robots:             t.Population.Robots,
		Obstacles:          t.Population.Obstacles,
		Quicksands:         t.Population.Quicksands,
		Mines:              t.Population.Mines,
		Speed:              t.Population.Speed,
		DriftProbability:   t.Behavior.DriftProbability,
		DisableDrift:       t.Behavior.DriftProbability == 0,
		PlacementAttempts:  t.Budgets.PlacementAttempts,
		AvoidanceAttempts:  t.Budgets.AvoidanceAttempts,
		SnapshotEveryTicks: t.SnapshotEveryTicks,
		MaxTicks:           t.MaxTicks,
	}
}

func (cfg *WorldConfig) applyDefaults() {
	d := tuning.Defaults()
	if cfg.ID == "" {
		cfg.ID = "world_1"
	}
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = d.TickRateHz
	}
	if cfg.Width <= 0 {
		cfg.Width = d.Arena.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = d.Arena.Height
	}
	if cfg.HazardRadiusMin <= 0 && cfg.HazardRadiusMax <= 0 {
		cfg.HazardRadiusMin = d.Arena.HazardRadiusMin
		cfg.HazardRadiusMax = d.Arena.HazardRadiusMax
	}
	if cfg.HazardRadiusMax < cfg.HazardRadiusMin {
		cfg.HazardRadiusMax = cfg.HazardRadiusMin
	}
	if cfg.Speed <= 0 {
		cfg.Speed = d.Population.Speed
	}
	if cfg.PlacementAttempts <= 0 {
		cfg.PlacementAttempts = d.Budgets.PlacementAttempts
	}
	if cfg.AvoidanceAttempts <= 0 {
		cfg.AvoidanceAttempts = d.Budgets.AvoidanceAttempts
	}
	switch {
	case cfg.DisableDrift:
		cfg.DriftProbability = 0
	case cfg.DriftProbability <= 0:
		cfg.DriftProbability = d.Behavior.DriftProbability
	case cfg.DriftProbability > 1:
		cfg.DriftProbability = 1
	}
}
