package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"deminer.ai/internal/observerproto"
)

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/admin/v1/observer/ws", "observer ws url")
		shapes = flag.Bool("shapes", false, "request render shapes")
		audits = flag.Bool("audits", true, "request audit entries")
		exit   = flag.Bool("exit_when_done", true, "exit once the world reports running=false")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sub := observerproto.SubscribeMsg{
		Type:            observerproto.TypeSubscribe,
		ProtocolVersion: observerproto.Version,
		IncludeShapes:   *shapes,
		IncludeAudits:   *audits,
	}
	if err := conn.WriteJSON(sub); err != nil {
		logger.Fatalf("send SUBSCRIBE: %v", err)
	}

	// The server drops sessions that stay silent; re-subscribing keeps this one alive.
	go func() {
		t := time.NewTicker(30 * time.Second)
		defer t.Stop()
		for range t.C {
			if err := conn.WriteJSON(sub); err != nil {
				return
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		lines, running, err := handleMessage(msg)
		for _, l := range lines {
			logger.Print(l)
		}
		if err != nil {
			logger.Printf("%v", err)
			if errors.Is(err, errRejected) {
				os.Exit(1)
			}
			continue
		}
		if *exit && !running {
			logger.Printf("world finished")
			return
		}
	}
}

var errRejected = errors.New("rejected by server")

// handleMessage turns one server message into log lines. running is false once
// the world reports that all mines are cleared.
func handleMessage(msg []byte) (lines []string, running bool, err error) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &base); err != nil {
		return nil, true, fmt.Errorf("decode: %w", err)
	}
	switch base.Type {
	case observerproto.TypeTick:
		var t observerproto.TickMsg
		if err := json.Unmarshal(msg, &t); err != nil {
			return nil, true, fmt.Errorf("decode TICK: %w", err)
		}
		m := t.Metrics
		lines = append(lines, fmt.Sprintf("tick=%d running=%v mines=%d danger=%d indication=%d defused=%d quicksand=%d shapes=%d",
			t.Tick, t.Running, m.MinesRemaining, m.DangerMarkers, m.IndicationMarkers, m.MinesDefused, m.QuicksandSteps, len(t.Shapes)))
		for _, a := range t.Audits {
			line := fmt.Sprintf("  %s %s at (%.1f,%.1f)", a.Actor, a.Action, a.Pos[0], a.Pos[1])
			if a.Reason != "" {
				line += " " + a.Reason
			}
			lines = append(lines, line)
		}
		return lines, t.Running, nil
	case observerproto.TypeError:
		var e observerproto.ErrorMsg
		if err := json.Unmarshal(msg, &e); err != nil {
			return nil, true, fmt.Errorf("decode ERROR: %w", err)
		}
		return nil, true, fmt.Errorf("%w: %s %s", errRejected, e.Code, e.Message)
	default:
		return nil, true, fmt.Errorf("unexpected message type %q", base.Type)
	}
}
