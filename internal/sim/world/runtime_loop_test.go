package world

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"deminer.ai/internal/observerproto"
	"deminer.ai/internal/persistence/snapshot"
)

func TestObserver_ReceivesTicks(t *testing.T) {
	w := mustLayout(t, testConfig(), Layout{
		Robots: []RobotPlacement{{X: 100, Y: 100}},
		Mines:  []Mine{{X: 100, Y: 100}},
	})
	out := make(chan []byte, 4)
	w.handleObserverJoin(ObserverJoinRequest{SessionID: "O1", TickOut: out, IncludeShapes: true, IncludeAudits: true})

	// Join sends the current state.
	var hello observerproto.TickMsg
	if err := json.Unmarshal(<-out, &hello); err != nil {
		t.Fatalf("unmarshal join msg: %v", err)
	}
	if !hello.Running || hello.Metrics.MinesRemaining != 1 || len(hello.Shapes) != 2 {
		t.Fatalf("join msg=%+v", hello)
	}

	mustStep(t, w)
	var msg observerproto.TickMsg
	if err := json.Unmarshal(<-out, &msg); err != nil {
		t.Fatalf("unmarshal tick msg: %v", err)
	}
	if msg.Type != observerproto.TypeTick || msg.Tick != 0 || msg.Running {
		t.Fatalf("tick msg=%+v", msg)
	}
	if msg.Metrics.MinesDefused != 1 || msg.Metrics.IndicationMarkers != 1 {
		t.Fatalf("metrics=%+v", msg.Metrics)
	}
	actions := map[string]bool{}
	for _, a := range msg.Audits {
		actions[a.Action] = true
	}
	if !actions["DEFUSE_MINE"] || !actions["DROP_INDICATION"] {
		t.Fatalf("audits=%+v", msg.Audits)
	}

	w.handleObserverSubscribe(ObserverSubscribeRequest{SessionID: "O1"})
	mustStep(t, w)
	msg = observerproto.TickMsg{}
	if err := json.Unmarshal(<-out, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(msg.Shapes) != 0 || len(msg.Audits) != 0 {
		t.Fatalf("unsubscribed fields still sent: %+v", msg)
	}

	w.handleObserverLeave("O1")
	if _, ok := <-out; ok {
		t.Fatalf("expected closed channel after leave")
	}
}

func TestRun_FinishesAndServesSnapshots(t *testing.T) {
	cfg := testConfig()
	cfg.TickRateHz = 200
	w := mustLayout(t, cfg, Layout{
		Robots: []RobotPlacement{{X: 100, Y: 100}},
		Mines:  []Mine{{X: 100, Y: 100}},
	})
	sink := make(chan snapshot.SnapshotV1, 1)
	w.SetSnapshotSink(sink)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	select {
	case <-w.Finished():
	case <-ctx.Done():
		t.Fatalf("world did not finish")
	}

	tick, err := w.RequestSnapshot(ctx)
	if err != nil {
		t.Fatalf("RequestSnapshot: %v", err)
	}
	if tick != 1 {
		t.Fatalf("snapshot tick=%d want 1", tick)
	}
	snap := <-sink
	if snap.Header.Tick != 1 || snap.Running || len(snap.MineList) != 0 {
		t.Fatalf("snapshot=%+v", snap.Header)
	}
	if m := w.Metrics(); m.Running || m.Tick != 1 || m.Metrics.MinesDefused != 1 {
		t.Fatalf("metrics=%+v", m)
	}

	w.Stop()
	w.Stop()
	if err := <-errCh; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestServeSnapshotOrders(t *testing.T) {
	cases := []struct {
		name    string
		sink    chan snapshot.SnapshotV1
		fill    bool
		wantErr error
	}{
		{"no sink", nil, false, ErrNoSnapshotSink},
		{"sink full", make(chan snapshot.SnapshotV1, 1), true, ErrSnapshotSinkFull},
		{"delivered", make(chan snapshot.SnapshotV1, 1), false, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := mustLayout(t, testConfig(), Layout{
				Robots: []RobotPlacement{{X: 300, Y: 300}},
				Mines:  []Mine{{X: 100, Y: 100}},
			})
			if tc.sink != nil {
				w.SetSnapshotSink(tc.sink)
			}
			if tc.fill {
				tc.sink <- snapshot.SnapshotV1{}
			}
			mustStep(t, w)

			// Two orders queued in the same tick share one snapshot.
			a := snapshotOrder{reply: make(chan snapshotReceipt, 1)}
			b := snapshotOrder{reply: make(chan snapshotReceipt, 1)}
			w.serveSnapshotOrders([]snapshotOrder{a, b})
			for _, o := range []snapshotOrder{a, b} {
				rc := <-o.reply
				if rc.tick != 1 || !errors.Is(rc.err, tc.wantErr) {
					t.Fatalf("receipt=%+v want tick 1 err %v", rc, tc.wantErr)
				}
			}
			if tc.wantErr == nil {
				if snap := <-tc.sink; snap.Header.Tick != 1 || !snap.Running {
					t.Fatalf("snapshot header=%+v running=%v", snap.Header, snap.Running)
				}
				select {
				case <-tc.sink:
					t.Fatalf("more than one snapshot for one tick")
				default:
				}
			}
		})
	}
}

func TestRequestSnapshot_HonoursContext(t *testing.T) {
	w := mustLayout(t, testConfig(), Layout{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nobody runs the loop, so the only way out is the context.
	if _, err := w.RequestSnapshot(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
}
