package world

import (
	"encoding/json"

	"deminer.ai/internal/observerproto"
)

// ObserverJoinRequest registers a read-only observer session that receives one TICK per tick.
// All observer state is maintained by the world loop goroutine.
type ObserverJoinRequest struct {
	SessionID string
	TickOut   chan []byte

	IncludeShapes bool
	IncludeAudits bool
}

// ObserverSubscribeRequest updates an existing observer session subscription settings.
type ObserverSubscribeRequest struct {
	SessionID string

	IncludeShapes bool
	IncludeAudits bool
}

type observerClient struct {
	id      string
	tickOut chan []byte

	includeShapes bool
	includeAudits bool
}

func (w *World) ObserverJoin() chan<- ObserverJoinRequest           { return w.observerJoin }
func (w *World) ObserverSubscribe() chan<- ObserverSubscribeRequest { return w.observerSub }
func (w *World) ObserverLeave() chan<- string                       { return w.observerLeave }

func (w *World) handleObserverJoin(req ObserverJoinRequest) {
	if req.SessionID == "" || req.TickOut == nil {
		return
	}
	if old := w.observers[req.SessionID]; old != nil {
		close(old.tickOut)
	}
	c := &observerClient{
		id:            req.SessionID,
		tickOut:       req.TickOut,
		includeShapes: req.IncludeShapes,
		includeAudits: req.IncludeAudits,
	}
	w.observers[req.SessionID] = c

	// Late joiners (e.g. after the run finished) still get the current state.
	cur := w.tick.Load()
	last := uint64(0)
	if cur > 0 {
		last = cur - 1
	}
	if b, err := json.Marshal(w.buildTickMsg(c, last, nil)); err == nil {
		sendLatest(c.tickOut, b)
	}
}

func (w *World) handleObserverSubscribe(req ObserverSubscribeRequest) {
	c := w.observers[req.SessionID]
	if c == nil {
		return
	}
	c.includeShapes = req.IncludeShapes
	c.includeAudits = req.IncludeAudits
}

func (w *World) handleObserverLeave(sessionID string) {
	c := w.observers[sessionID]
	if c == nil {
		return
	}
	delete(w.observers, sessionID)
	close(c.tickOut)
}

func (w *World) stepObservers(nowTick uint64) {
	if len(w.observers) == 0 {
		return
	}
	var shapes []observerproto.Shape
	for _, c := range w.observers {
		if c.includeShapes && shapes == nil {
			shapes = w.Shapes()
		}
		msg := w.buildTickMsg(c, nowTick, shapes)
		msg.Audits = nil
		if c.includeAudits {
			msg.Audits = w.observerAudits()
		}
		b, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		sendLatest(c.tickOut, b)
	}
}

func (w *World) buildTickMsg(c *observerClient, tick uint64, shapes []observerproto.Shape) observerproto.TickMsg {
	m := w.CollectMetrics()
	msg := observerproto.TickMsg{
		Type:            observerproto.TypeTick,
		ProtocolVersion: observerproto.Version,
		Tick:            tick,
		Running:         w.running,
		Metrics: observerproto.Metrics{
			MinesRemaining:    m.MinesRemaining,
			DangerMarkers:     m.DangerMarkers,
			IndicationMarkers: m.IndicationMarkers,
			MinesDefused:      m.MinesDefused,
			QuicksandSteps:    m.QuicksandSteps,
		},
	}
	if c.includeShapes {
		if shapes == nil {
			shapes = w.Shapes()
		}
		msg.Shapes = shapes
	}
	return msg
}

func (w *World) observerAudits() []observerproto.AuditEntry {
	if len(w.auditsThisTick) == 0 {
		return nil
	}
	out := make([]observerproto.AuditEntry, 0, len(w.auditsThisTick))
	for _, e := range w.auditsThisTick {
		out = append(out, observerproto.AuditEntry{
			Tick:   e.Tick,
			Actor:  e.Actor,
			Action: e.Action,
			Pos:    e.Pos,
			Reason: e.Reason,
		})
	}
	return out
}

// sendLatest never blocks: when the buffer is full the oldest message is dropped.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
