package world

import (
	"context"
	"errors"
)

var (
	ErrNoSnapshotSink   = errors.New("no snapshot sink attached")
	ErrSnapshotSinkFull = errors.New("snapshot sink full")
)

// snapshotOrder is an on-demand snapshot request. The loop answers on reply once the
// snapshot is handed to the sink, or with the reason it could not be.
type snapshotOrder struct {
	reply chan snapshotReceipt
}

type snapshotReceipt struct {
	tick uint64
	err  error
}

// RequestSnapshot asks the world loop for a snapshot outside the periodic schedule and
// returns the tick it resumes from. After the run is over the loop keeps answering, so
// this is also how cmd/server takes the final snapshot it archives.
func (w *World) RequestSnapshot(ctx context.Context) (uint64, error) {
	if w == nil || w.snapshotOrders == nil {
		return 0, errors.New("world loop not available")
	}
	reply := make(chan snapshotReceipt, 1)
	select {
	case w.snapshotOrders <- snapshotOrder{reply: reply}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case rc := <-reply:
		return rc.tick, rc.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// serveSnapshotOrders runs between ticks, so every order queued since the last tick
// shares one snapshot.
func (w *World) serveSnapshotOrders(orders []snapshotOrder) {
	if len(orders) == 0 {
		return
	}
	rc := snapshotReceipt{tick: w.tick.Load()}
	switch {
	case w.snapshotSink == nil:
		rc.err = ErrNoSnapshotSink
	case !w.emitSnapshot():
		rc.err = ErrSnapshotSinkFull
	}
	for _, o := range orders {
		select {
		case o.reply <- rc:
		default:
		}
	}
}

// emitSnapshot offers the current state to the sink; a full sink drops it.
func (w *World) emitSnapshot() bool {
	if w.snapshotSink == nil {
		return false
	}
	select {
	case w.snapshotSink <- w.ExportSnapshot():
		return true
	default:
		return false
	}
}
