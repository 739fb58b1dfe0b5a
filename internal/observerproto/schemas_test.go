package observerproto_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"deminer.ai/internal/observerproto"
	"deminer.ai/internal/sim/world"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// validateGo round-trips v through JSON so the schema sees what goes on the wire.
func validateGo(t *testing.T, s *jsonschema.Schema, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := s.Validate(doc); err != nil {
		t.Fatalf("validate %s: %v", b, err)
	}
}

func TestSchemas_ValidateSamples(t *testing.T) {
	subSchema := compile(t, "subscribe.schema.json")
	tickSchema := compile(t, "tick.schema.json")
	bootSchema := compile(t, "bootstrap.schema.json")
	errSchema := compile(t, "error.schema.json")

	validateGo(t, subSchema, observerproto.SubscribeMsg{
		Type:            observerproto.TypeSubscribe,
		ProtocolVersion: observerproto.Version,
		IncludeShapes:   true,
	})

	w, err := world.NewFromLayout(world.WorldConfig{Width: 600, Height: 600, Speed: 15}, world.Layout{
		Robots:     []world.RobotPlacement{{X: 100, Y: 100}, {X: 400, Y: 400, Heading: 2}},
		Obstacles:  []world.Obstacle{{X: 300, Y: 300, R: 20}},
		Quicksands: []world.Quicksand{{X: 500, Y: 100, R: 15}},
		Mines:      []world.Mine{{X: 100, Y: 100}, {X: 50, Y: 550}},
		Markers:    []world.Marker{world.NewDangerMarker(10, 10)},
	})
	if err != nil {
		t.Fatalf("NewFromLayout: %v", err)
	}
	if err := w.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	m := w.CollectMetrics()
	validateGo(t, tickSchema, observerproto.TickMsg{
		Type:            observerproto.TypeTick,
		ProtocolVersion: observerproto.Version,
		Tick:            0,
		Running:         w.Running(),
		Metrics: observerproto.Metrics{
			MinesRemaining:    m.MinesRemaining,
			DangerMarkers:     m.DangerMarkers,
			IndicationMarkers: m.IndicationMarkers,
			MinesDefused:      m.MinesDefused,
			QuicksandSteps:    m.QuicksandSteps,
		},
		Shapes: w.Shapes(),
		Audits: []observerproto.AuditEntry{{Tick: 0, Actor: "r1", Action: "DEFUSE_MINE", Pos: [2]float64{100, 100}}},
	})

	cfg := w.Config()
	validateGo(t, bootSchema, observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		WorldID:         cfg.ID,
		Tick:            w.CurrentTick(),
		Running:         w.Running(),
		WorldParams: observerproto.WorldParams{
			TickRateHz: cfg.TickRateHz,
			Width:      cfg.Width,
			Height:     cfg.Height,
			Seed:       cfg.Seed,
			Robots:     cfg.Robots,
			Obstacles:  cfg.Obstacles,
			Quicksands: cfg.Quicksands,
			Mines:      cfg.Mines,
			Speed:      cfg.Speed,
		},
		Series: world.SeriesLabels(),
	})

	validateGo(t, errSchema, observerproto.ErrorMsg{
		Type:            observerproto.TypeError,
		ProtocolVersion: observerproto.Version,
		Code:            observerproto.ErrWorldBusy,
		Message:         "server busy",
	})
}

func TestSchemas_RejectUnknownFields(t *testing.T) {
	s := compile(t, "subscribe.schema.json")
	var doc any
	_ = json.Unmarshal([]byte(`{"type":"SUBSCRIBE","protocol_version":"0.1","chunk_radius":6}`), &doc)
	if err := s.Validate(doc); err == nil {
		t.Fatalf("expected unknown field to be rejected")
	}
}
