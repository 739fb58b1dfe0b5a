package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
	MaxTicks           int `yaml:"max_ticks"`

	Arena      Arena      `yaml:"arena"`
	Population Population `yaml:"population"`
	Behavior   Behavior   `yaml:"behavior"`
	Budgets    Budgets    `yaml:"budgets"`
}

type Arena struct {
	Width           float64 `yaml:"width"`
	Height          float64 `yaml:"height"`
	HazardRadiusMin float64 `yaml:"hazard_radius_min"`
	HazardRadiusMax float64 `yaml:"hazard_radius_max"`
}

type Population struct {
	Robots     int     `yaml:"robots"`
	Obstacles  int     `yaml:"obstacles"`
	Quicksands int     `yaml:"quicksands"`
	Mines      int     `yaml:"mines"`
	Speed      float64 `yaml:"speed"`
}

type Behavior struct {
	DriftProbability float64 `yaml:"drift_probability"`
}

// Budgets caps the rejection-sampling loops (placement and avoidance).
type Budgets struct {
	PlacementAttempts int `yaml:"placement_attempts"`
	AvoidanceAttempts int `yaml:"avoidance_attempts"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "0.1",
		TickRateHz:         10,
		SnapshotEveryTicks: 500,
		MaxTicks:           0,
		Arena: Arena{
			Width:           600,
			Height:          600,
			HazardRadiusMin: 10,
			HazardRadiusMax: 30,
		},
		Population: Population{
			Robots:     7,
			Obstacles:  5,
			Quicksands: 5,
			Mines:      15,
			Speed:      15,
		},
		Behavior: Behavior{
			DriftProbability: 0.01,
		},
		Budgets: Budgets{
			PlacementAttempts: 10000,
			AvoidanceAttempts: 1000,
		},
	}
}

// Load reads a tuning file on top of Defaults. Missing keys keep their default value.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t *Tuning) Normalize() {
	d := Defaults()
	if t.ProtocolVersion == "" {
		t.ProtocolVersion = d.ProtocolVersion
	}
	if t.TickRateHz <= 0 {
		t.TickRateHz = d.TickRateHz
	}
	if t.Budgets.PlacementAttempts <= 0 {
		t.Budgets.PlacementAttempts = d.Budgets.PlacementAttempts
	}
	if t.Budgets.AvoidanceAttempts <= 0 {
		t.Budgets.AvoidanceAttempts = d.Budgets.AvoidanceAttempts
	}
}

func (t Tuning) Validate() error {
	if t.Arena.Width <= 0 || t.Arena.Height <= 0 {
		return fmt.Errorf("arena width/height must be > 0")
	}
	if t.Arena.HazardRadiusMin < 0 || t.Arena.HazardRadiusMax < t.Arena.HazardRadiusMin {
		return fmt.Errorf("arena hazard radius range must satisfy 0 <= min <= max")
	}
	p := t.Population
	if p.Robots < 0 || p.Obstacles < 0 || p.Quicksands < 0 || p.Mines < 0 {
		return fmt.Errorf("population counts must be >= 0")
	}
	if p.Speed <= 0 {
		return fmt.Errorf("population speed must be > 0")
	}
	if t.Behavior.DriftProbability < 0 || t.Behavior.DriftProbability > 1 {
		return fmt.Errorf("behavior drift_probability must be in [0,1]")
	}
	if t.SnapshotEveryTicks < 0 {
		return fmt.Errorf("snapshot_every_ticks must be >= 0")
	}
	if t.MaxTicks < 0 {
		return fmt.Errorf("max_ticks must be >= 0")
	}
	return nil
}
