package main

import (
	"strings"
	"testing"

	tlog "deminer.ai/internal/persistence/log"
	"deminer.ai/internal/persistence/snapshot"
	"deminer.ai/internal/sim/tuning"
	"deminer.ai/internal/sim/world"
)

func recordRun(t *testing.T, dir string, seed int64, ticks int) snapshot.SnapshotV1 {
	t.Helper()
	w, err := world.New(world.ConfigFromTuning("w1", seed, tuning.Defaults()))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	start := w.ExportSnapshot()
	tl := tlog.NewTickLogger(dir)
	w.SetTickLogger(tl)
	for i := 0; i < ticks && !w.Done(); i++ {
		if err := w.Step(); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	if err := tl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return start
}

func TestReplay_MatchesRecordedDigests(t *testing.T) {
	dir := t.TempDir()
	start := recordRun(t, dir, 11, 25)

	w, err := world.NewFromSnapshot(start)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	checked, err := replay(w, dir, 0, 0)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if checked != 25 {
		t.Fatalf("checked=%d", checked)
	}
}

func TestReplay_ToTickStopsEarly(t *testing.T) {
	dir := t.TempDir()
	start := recordRun(t, dir, 11, 25)

	w, err := world.NewFromSnapshot(start)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	checked, err := replay(w, dir, 5, 9)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if checked != 5 {
		t.Fatalf("checked=%d", checked)
	}
	if w.CurrentTick() != 10 {
		t.Fatalf("tick=%d", w.CurrentTick())
	}
}

func TestReplay_DetectsDivergence(t *testing.T) {
	dir := t.TempDir()
	_ = recordRun(t, dir, 11, 10)

	other, err := world.New(world.ConfigFromTuning("w1", 12, tuning.Defaults()))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	_, err = replay(other, dir, 0, 0)
	if err == nil || !strings.Contains(err.Error(), "digest mismatch at tick 0") {
		t.Fatalf("expected digest mismatch, got %v", err)
	}
}
