package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

// Header.Tick is the next tick the world will execute once the snapshot is loaded.
type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed     int64 `json:"seed"`
	TickRate int   `json:"tick_rate_hz"`

	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	HazardRadiusMin float64 `json:"hazard_radius_min"`
	HazardRadiusMax float64 `json:"hazard_radius_max"`

	// Population parameters the world was created with.
	Robots     int     `json:"robots"`
	Obstacles  int     `json:"obstacles"`
	Quicksands int     `json:"quicksands"`
	Mines      int     `json:"mines"`
	Speed      float64 `json:"speed"`

	// Operational parameters (captured for deterministic replay/resume).
	DriftProbability   float64 `json:"drift_probability"`
	DisableDrift       bool    `json:"disable_drift,omitempty"`
	PlacementAttempts  int     `json:"placement_attempts"`
	AvoidanceAttempts  int     `json:"avoidance_attempts"`
	SnapshotEveryTicks int     `json:"snapshot_every_ticks,omitempty"`
	MaxTicks           int     `json:"max_ticks,omitempty"`

	// RNG is the marshaled state of the world random source.
	RNG []byte `json:"rng"`

	Running bool `json:"running"`

	RobotList     []RobotV1  `json:"robot_list"`
	ObstacleList  []DiskV1   `json:"obstacle_list"`
	QuicksandList []DiskV1   `json:"quicksand_list"`
	MineList      []MineV1   `json:"mine_list"`
	MarkerList    []MarkerV1 `json:"marker_list"`

	Counters CountersV1 `json:"counters"`
}

type CountersV1 struct {
	MinesDefused   int    `json:"mines_defused"`
	QuicksandSteps int    `json:"quicksand_steps"`
	NextMine       uint64 `json:"next_mine"`
	NextMarker     uint64 `json:"next_marker"`
}

type RobotV1 struct {
	ID          string  `json:"id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Speed       float64 `json:"speed"`
	BaseSpeed   float64 `json:"base_speed"`
	SightRadius float64 `json:"sight_radius"`
	Heading     float64 `json:"heading"`

	CountdownMode      uint8 `json:"countdown_mode"`
	CountdownRemaining int   `json:"countdown_remaining"`
}

type DiskV1 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
}

type MineV1 struct {
	Handle uint64  `json:"handle"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type MarkerV1 struct {
	Handle       uint64  `json:"handle"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Purpose      string  `json:"purpose"`
	Direction    float64 `json:"direction,omitempty"`
	HasDirection bool    `json:"has_direction,omitempty"`
}

// WriteSnapshot writes a JSON header line followed by the gob-encoded snapshot, zstd-compressed.
func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Header line is duplicated inside the gob body.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader decodes only the leading JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}
