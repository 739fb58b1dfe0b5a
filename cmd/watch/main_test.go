package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"deminer.ai/internal/observerproto"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestHandleMessage_Tick(t *testing.T) {
	msg := mustJSON(t, observerproto.TickMsg{
		Type:            observerproto.TypeTick,
		ProtocolVersion: observerproto.Version,
		Tick:            12,
		Running:         true,
		Metrics:         observerproto.Metrics{MinesRemaining: 4, MinesDefused: 11},
		Audits: []observerproto.AuditEntry{
			{Tick: 12, Actor: "r1", Action: "DEFUSE_MINE", Pos: [2]float64{1, 2}},
		},
	})
	lines, running, err := handleMessage(msg)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !running {
		t.Fatalf("expected running")
	}
	if len(lines) != 2 || !strings.Contains(lines[0], "tick=12") || !strings.Contains(lines[0], "mines=4") {
		t.Fatalf("lines=%q", lines)
	}
	if !strings.Contains(lines[1], "DEFUSE_MINE") {
		t.Fatalf("audit line=%q", lines[1])
	}
}

func TestHandleMessage_Finished(t *testing.T) {
	msg := mustJSON(t, observerproto.TickMsg{Type: observerproto.TypeTick, Tick: 99})
	_, running, err := handleMessage(msg)
	if err != nil || running {
		t.Fatalf("running=%v err=%v", running, err)
	}
}

func TestHandleMessage_Error(t *testing.T) {
	msg := mustJSON(t, observerproto.ErrorMsg{Type: observerproto.TypeError, Code: observerproto.ErrWorldBusy})
	_, _, err := handleMessage(msg)
	if !errors.Is(err, errRejected) || !strings.Contains(err.Error(), observerproto.ErrWorldBusy) {
		t.Fatalf("err=%v", err)
	}
}

func TestHandleMessage_Unknown(t *testing.T) {
	if _, _, err := handleMessage([]byte(`{"type":"NOPE"}`)); err == nil {
		t.Fatalf("expected error")
	}
	if _, _, err := handleMessage([]byte(`not json`)); err == nil {
		t.Fatalf("expected error")
	}
}
