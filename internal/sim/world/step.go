package world

import (
	"fmt"
	"time"
)

// Step advances the world by one tick: the pre-move metrics go to the sink, every robot
// runs its pipeline in a fresh random order, then the running flag is recomputed.
func (w *World) Step() error {
	stepStart := time.Now()
	nowTick := w.tick.Load()

	// Reset per-tick observer audit buffer (filled by audit).
	w.auditsThisTick = w.auditsThisTick[:0]

	if w.metricsSink != nil {
		_ = w.metricsSink.RecordMetrics(nowTick, w.CollectMetrics())
	}

	// Later robots see the mines and markers earlier robots changed this tick.
	for _, i := range w.rng.Perm(len(w.robots)) {
		r := w.robots[i]
		if err := w.stepRobot(nowTick, r); err != nil {
			return fmt.Errorf("tick %d robot %s: %w", nowTick, r.ID, err)
		}
	}
	w.mines.compact()
	w.markers.compact()
	w.running = w.mines.Len() > 0

	w.stepObservers(nowTick)

	digest := w.stateDigest(nowTick)
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(TickLogEntry{
			Tick:           nowTick,
			Running:        w.running,
			MinesRemaining: w.mines.Len(),
			Digest:         digest,
		})
	}

	nextTick := w.tick.Add(1)

	// Snapshot every N ticks; the snapshot resumes at nextTick.
	if every := uint64(w.cfg.SnapshotEveryTicks); every > 0 && nextTick%every == 0 {
		// Drop snapshot if sink is backed up.
		_ = w.emitSnapshot()
	}

	w.publishMetrics(float64(time.Since(stepStart).Microseconds()) / 1000.0)
	return nil
}

// StepOnce advances the world by a single tick using the same ordering semantics as the server.
// It is primarily intended for deterministic replays/tests.
func (w *World) StepOnce() (tick uint64, digest string, err error) {
	tick = w.tick.Load()
	if err := w.Step(); err != nil {
		return tick, "", err
	}
	return tick, w.stateDigest(tick), nil
}

// Done reports whether the driving loop should stop stepping.
func (w *World) Done() bool {
	if !w.running {
		return true
	}
	return w.cfg.MaxTicks > 0 && w.tick.Load() >= uint64(w.cfg.MaxTicks)
}
