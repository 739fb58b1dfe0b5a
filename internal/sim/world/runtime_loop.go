package world

import (
	"context"
	"time"
)

// Run ticks the world at cfg.TickRateHz until ctx is cancelled or Stop is called.
// Once Done, stepping stops and Finished is closed, but observers and snapshot
// requests are still served.
func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var orders []snapshotOrder

	if w.Done() {
		w.markFinished()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.observerJoin:
			w.handleObserverJoin(req)
		case req := <-w.observerSub:
			w.handleObserverSubscribe(req)
		case id := <-w.observerLeave:
			w.handleObserverLeave(id)
		case o := <-w.snapshotOrders:
			orders = append(orders, o)
		case <-ticker.C:
			if !w.Done() {
				if err := w.Step(); err != nil {
					return err
				}
				if w.Done() {
					w.markFinished()
				}
			} else {
				w.publishMetrics(0)
			}
			w.serveSnapshotOrders(orders)
			orders = orders[:0]
		}
	}
}

func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

// Finished is closed once the run is over (all mines cleared or MaxTicks reached).
func (w *World) Finished() <-chan struct{} { return w.finished }

func (w *World) markFinished() {
	w.finishOnce.Do(func() { close(w.finished) })
}

func (w *World) TickRateHz() int {
	if w == nil {
		return 0
	}
	return w.cfg.TickRateHz
}
