package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"deminer.ai/internal/persistence/snapshot"
)

type RunArchiveMeta struct {
	WorldID        string `json:"world_id"`
	Seed           int64  `json:"seed"`
	EndTick        uint64 `json:"end_tick"`
	Cleared        bool   `json:"cleared"`
	MinesRemaining int    `json:"mines_remaining"`
	MinesDefused   int    `json:"mines_defused"`
	QuicksandSteps int    `json:"quicksand_steps"`
	Snapshot       string `json:"snapshot"`
	CreatedAt      string `json:"created_at"`
}

// Finished reports whether snap captures a run that will not step again:
// every mine is cleared or the tick cap is reached.
func Finished(snap snapshot.SnapshotV1) bool {
	if !snap.Running {
		return true
	}
	return snap.MaxTicks > 0 && snap.Header.Tick >= uint64(snap.MaxTicks)
}

// ArchiveRunSnapshot copies a finished-run snapshot into `worldDir/archives/run_<seed>_<tick>/`
// next to a meta.json summary. Snapshots of runs still in progress are ignored.
func ArchiveRunSnapshot(worldDir, snapshotPath string, snap snapshot.SnapshotV1) (archivedPath string, archived bool, err error) {
	if !Finished(snap) {
		return "", false, nil
	}

	archiveDir := filepath.Join(worldDir, "archives", fmt.Sprintf("run_%d_%d", snap.Seed, snap.Header.Tick))
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta := RunArchiveMeta{
		WorldID:        snap.Header.WorldID,
		Seed:           snap.Seed,
		EndTick:        snap.Header.Tick,
		Cleared:        !snap.Running,
		MinesRemaining: len(snap.MineList),
		MinesDefused:   snap.Counters.MinesDefused,
		QuicksandSteps: snap.Counters.QuicksandSteps,
		Snapshot:       filepath.Base(dst),
		CreatedAt:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", false, err
	}
	if err := os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644); err != nil {
		return "", false, err
	}
	return dst, true, nil
}

// ReadMeta loads the meta.json written next to an archived snapshot.
func ReadMeta(archiveDir string) (RunArchiveMeta, error) {
	var m RunArchiveMeta
	b, err := os.ReadFile(filepath.Join(archiveDir, "meta.json"))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
