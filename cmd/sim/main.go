package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"deminer.ai/internal/persistence/archive"
	tlog "deminer.ai/internal/persistence/log"
	"deminer.ai/internal/persistence/snapshot"
	"deminer.ai/internal/sim/tuning"
	"deminer.ai/internal/sim/world"
)

func main() {
	var (
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 1337, "world seed")
		maxTicks   = flag.Int("max_ticks", -1, "tick cap (overrides tuning when >= 0; 0 means until all mines are cleared)")
		outDir     = flag.String("out", "", "write tick/audit/metrics logs and the start snapshot under <out>/worlds/<id> (optional)")
		series     = flag.Bool("series", false, "print the per-tick metrics series as CSV")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[sim] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", *tuningPath)
		tune = tuning.Defaults()
	}
	cfg := world.ConfigFromTuning(*worldID, *seed, tune)
	if *maxTicks >= 0 {
		cfg.MaxTicks = *maxTicks
	}
	// Headless runs never emit periodic snapshots; the start state is enough for replay.
	cfg.SnapshotEveryTicks = 0

	dir := ""
	if *outDir != "" {
		dir = filepath.Join(*outDir, "worlds", *worldID)
	}
	res, err := run(cfg, dir)
	if err != nil {
		logger.Fatalf("run: %v", err)
	}
	printSummary(os.Stdout, res)
	if *series {
		writeSeriesCSV(os.Stdout, res.Recorder)
	}
}

type result struct {
	WorldID  string
	Seed     int64
	Ticks    uint64
	Cleared  bool
	Final    world.Metrics
	Elapsed  time.Duration
	Recorder *world.MetricsRecorder
}

var errNeverEnds = errors.New("no robots and no tick cap: the run would never end")

// run steps a fresh world until Done. When worldDir is set, the run is persisted the
// same way the server does it so cmd/replay can verify it.
func run(cfg world.WorldConfig, worldDir string) (result, error) {
	if cfg.MaxTicks == 0 && cfg.Mines > 0 && cfg.Robots == 0 {
		return result{}, errNeverEnds
	}
	w, err := world.New(cfg)
	if err != nil {
		return result{}, err
	}

	rec := world.NewMetricsRecorder()
	var sink world.MetricsSink = rec
	if worldDir != "" {
		if err := snapshot.WriteSnapshot(filepath.Join(worldDir, "snapshots", "0.snap.zst"), w.ExportSnapshot()); err != nil {
			return result{}, fmt.Errorf("start snapshot: %w", err)
		}
		tickLog := tlog.NewTickLogger(worldDir)
		auditLog := tlog.NewAuditLogger(worldDir)
		metricsLog := tlog.NewMetricsLogger(worldDir)
		defer tickLog.Close()
		defer auditLog.Close()
		defer metricsLog.Close()
		w.SetTickLogger(tickLog)
		w.SetAuditLogger(auditLog)
		sink = teeSink{rec, metricsLog}
	}
	w.SetMetricsSink(sink)

	start := time.Now()
	for !w.Done() {
		if err := w.Step(); err != nil {
			return result{}, err
		}
	}
	elapsed := time.Since(start)

	if worldDir != "" {
		final := w.ExportSnapshot()
		path := filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.snap.zst", final.Header.Tick))
		if err := snapshot.WriteSnapshot(path, final); err != nil {
			return result{}, fmt.Errorf("final snapshot: %w", err)
		}
		if _, _, err := archive.ArchiveRunSnapshot(worldDir, path, final); err != nil {
			return result{}, fmt.Errorf("archive: %w", err)
		}
	}
	return result{
		WorldID:  w.ID(),
		Seed:     w.Config().Seed,
		Ticks:    w.CurrentTick(),
		Cleared:  !w.Running(),
		Final:    w.CollectMetrics(),
		Elapsed:  elapsed,
		Recorder: rec,
	}, nil
}

type teeSink []world.MetricsSink

func (t teeSink) RecordMetrics(tick uint64, m world.Metrics) error {
	for _, s := range t {
		_ = s.RecordMetrics(tick, m)
	}
	return nil
}

func printSummary(out io.Writer, r result) {
	status := "tick cap reached"
	if r.Cleared {
		status = "all mines cleared"
	}
	fmt.Fprintf(out, "world=%s seed=%d: %s after %s ticks (%s)\n",
		r.WorldID, r.Seed, status, humanize.Comma(int64(r.Ticks)), r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "  mines remaining:    %s\n", humanize.Comma(int64(r.Final.MinesRemaining)))
	fmt.Fprintf(out, "  mines defused:      %s\n", humanize.Comma(int64(r.Final.MinesDefused)))
	fmt.Fprintf(out, "  danger markers:     %s\n", humanize.Comma(int64(r.Final.DangerMarkers)))
	fmt.Fprintf(out, "  indication markers: %s\n", humanize.Comma(int64(r.Final.IndicationMarkers)))
	fmt.Fprintf(out, "  quicksand steps:    %s\n", humanize.Comma(int64(r.Final.QuicksandSteps)))
}

func writeSeriesCSV(out io.Writer, rec *world.MetricsRecorder) {
	labels := world.SeriesLabels()
	fmt.Fprint(out, "tick")
	for _, l := range labels {
		fmt.Fprintf(out, ",%q", l)
	}
	fmt.Fprintln(out)
	cols := make([][]int, len(labels))
	for i, l := range labels {
		cols[i] = rec.Series(l)
	}
	for row, tick := range rec.Ticks {
		fmt.Fprintf(out, "%d", tick)
		for _, c := range cols {
			fmt.Fprintf(out, ",%d", c[row])
		}
		fmt.Fprintln(out)
	}
}
