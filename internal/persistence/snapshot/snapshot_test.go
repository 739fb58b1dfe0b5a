package snapshot

import (
	"os"
	"path/filepath"
	"testing"
)

func sampleSnapshot() SnapshotV1 {
	return SnapshotV1{
		Header:   Header{Version: Version, WorldID: "world_1", Tick: 42},
		Seed:     7,
		TickRate: 10,
		Width:    600,
		Height:   600,
		Speed:    15,
		RNG:      []byte{1, 2, 3, 4},
		Running:  true,
		RobotList: []RobotV1{
			{ID: "r1", X: 10, Y: 20, Speed: 15, BaseSpeed: 7.5, SightRadius: 30, Heading: 1.25, CountdownMode: 1, CountdownRemaining: 3},
		},
		ObstacleList:  []DiskV1{{X: 100, Y: 100, R: 12}},
		QuicksandList: []DiskV1{{X: 300, Y: 200, R: 20}},
		MineList:      []MineV1{{Handle: 3, X: 50, Y: 60}},
		MarkerList: []MarkerV1{
			{Handle: 1, X: 1, Y: 2, Purpose: "DANGER"},
			{Handle: 2, X: 3, Y: 4, Purpose: "INDICATION", Direction: 0.5, HasDirection: true},
		},
		Counters: CountersV1{MinesDefused: 2, QuicksandSteps: 9, NextMine: 3, NextMarker: 2},
	}
}

func TestWriteReadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "42.snap.zst")
	in := sampleSnapshot()
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	out, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if out.Header != in.Header {
		t.Fatalf("header mismatch: %+v vs %+v", out.Header, in.Header)
	}
	if len(out.RobotList) != 1 || out.RobotList[0] != in.RobotList[0] {
		t.Fatalf("robots mismatch: %+v", out.RobotList)
	}
	if len(out.MarkerList) != 2 || out.MarkerList[1] != in.MarkerList[1] {
		t.Fatalf("markers mismatch: %+v", out.MarkerList)
	}
	if out.Counters != in.Counters || string(out.RNG) != string(in.RNG) {
		t.Fatalf("counters/rng mismatch: %+v %v", out.Counters, out.RNG)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.Tick != 42 || h.WorldID != "world_1" {
		t.Fatalf("header=%+v", h)
	}
}

func TestReadSnapshot_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.snap.zst")
	if err := os.WriteFile(path, []byte("not zstd"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatal("expected error for garbage snapshot")
	}
}
