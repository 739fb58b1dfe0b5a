package world

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"deminer.ai/internal/persistence/snapshot"
	"deminer.ai/internal/sim/geom"
)

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// MetricsSink receives the pre-move metrics of every tick.
type MetricsSink interface {
	RecordMetrics(tick uint64, m Metrics) error
}

type TickLogEntry struct {
	Tick           uint64 `json:"tick"`
	Running        bool   `json:"running"`
	MinesRemaining int    `json:"mines_remaining"`
	Digest         string `json:"digest"`
}

type AuditEntry struct {
	Tick   uint64     `json:"tick"`
	Actor  string     `json:"actor"`
	Action string     `json:"action"` // e.g. "DEFUSE_MINE"
	Pos    [2]float64 `json:"pos"`
	Reason string     `json:"reason,omitempty"`
}

type World struct {
	cfg    WorldConfig
	bounds geom.Bounds

	src *rand.ChaCha8
	rng *rand.Rand

	tick    atomic.Uint64
	running bool

	robots     []*Robot
	obstacles  []Obstacle
	quicksands []Quicksand
	mines      *store[Mine]
	markers    *store[Marker]

	minesDefused   int
	quicksandSteps int

	tickLogger   TickLogger
	auditLogger  AuditLogger
	metricsSink  MetricsSink
	snapshotSink chan<- snapshot.SnapshotV1

	// Mutations of the tick in progress, streamed to observers.
	auditsThisTick []AuditEntry

	observers      map[string]*observerClient
	observerJoin   chan ObserverJoinRequest
	observerSub    chan ObserverSubscribeRequest
	observerLeave  chan string
	snapshotOrders chan snapshotOrder

	stop     chan struct{}
	stopOnce sync.Once

	finished   chan struct{}
	finishOnce sync.Once

	metrics atomic.Value
}

// Layout places entities explicitly instead of sampling them.
type Layout struct {
	Robots     []RobotPlacement
	Obstacles  []Obstacle
	Quicksands []Quicksand
	Mines      []Mine
	Markers    []Marker
}

type RobotPlacement struct {
	X, Y    float64
	Heading float64
}

// New builds a world with randomly placed entities. Robots and mines are
// rejection-sampled away from obstacles and quicksand within cfg.PlacementAttempts.
func New(cfg WorldConfig) (*World, error) {
	cfg.applyDefaults()
	w := newWorld(cfg)
	if err := w.populate(); err != nil {
		return nil, err
	}
	w.running = w.mines.Len() > 0
	w.publishMetrics(0)
	return w, nil
}

// NewFromLayout builds a world from explicit entity positions.
// Population counts in cfg are replaced by the layout's.
func NewFromLayout(cfg WorldConfig, l Layout) (*World, error) {
	cfg.applyDefaults()
	cfg.Robots = len(l.Robots)
	cfg.Obstacles = len(l.Obstacles)
	cfg.Quicksands = len(l.Quicksands)
	cfg.Mines = len(l.Mines)
	w := newWorld(cfg)

	w.obstacles = append(w.obstacles, l.Obstacles...)
	w.quicksands = append(w.quicksands, l.Quicksands...)
	for _, p := range l.Robots {
		id, err := w.newRobotID()
		if err != nil {
			return nil, err
		}
		w.robots = append(w.robots, newRobot(id, p.X, p.Y, p.Heading, cfg.Speed))
	}
	for _, m := range l.Mines {
		w.mines.add(m)
	}
	for _, m := range l.Markers {
		if m.Purpose == MarkerIndication && !m.hasDirection {
			return nil, fmt.Errorf("layout marker at (%g,%g): %w", m.X, m.Y, ErrMissingDirection)
		}
		w.markers.add(m)
	}
	w.running = w.mines.Len() > 0
	w.publishMetrics(0)
	return w, nil
}

func newWorld(cfg WorldConfig) *World {
	src := rand.NewChaCha8(seedBytes(cfg.Seed))
	return &World{
		cfg:            cfg,
		bounds:         geom.Bounds{Width: cfg.Width, Height: cfg.Height},
		src:            src,
		rng:            rand.New(src),
		mines:          newStore[Mine](),
		markers:        newStore[Marker](),
		observers:      map[string]*observerClient{},
		observerJoin:   make(chan ObserverJoinRequest, 16),
		observerSub:    make(chan ObserverSubscribeRequest, 64),
		observerLeave:  make(chan string, 64),
		snapshotOrders: make(chan snapshotOrder, 16),
		stop:           make(chan struct{}),
		finished:       make(chan struct{}),
	}
}

func seedBytes(seed int64) [32]byte {
	var b [32]byte
	binary.LittleEndian.PutUint64(b[:8], uint64(seed))
	return b
}

func (w *World) populate() error {
	for i := 0; i < w.cfg.Obstacles; i++ {
		x, y := w.randomPoint()
		w.obstacles = append(w.obstacles, Obstacle{X: x, Y: y, R: w.randomRadius()})
	}
	for i := 0; i < w.cfg.Quicksands; i++ {
		x, y := w.randomPoint()
		w.quicksands = append(w.quicksands, Quicksand{X: x, Y: y, R: w.randomRadius()})
	}
	for i := 0; i < w.cfg.Robots; i++ {
		x, y, err := w.freePoint()
		if err != nil {
			return fmt.Errorf("place robot %d: %w", i, err)
		}
		id, err := w.newRobotID()
		if err != nil {
			return err
		}
		w.robots = append(w.robots, newRobot(id, x, y, geom.RandomHeading(w.rng), w.cfg.Speed))
	}
	for i := 0; i < w.cfg.Mines; i++ {
		x, y, err := w.freePoint()
		if err != nil {
			return fmt.Errorf("place mine %d: %w", i, err)
		}
		w.mines.add(Mine{X: x, Y: y})
	}
	return nil
}

func (w *World) randomPoint() (float64, float64) {
	return w.rng.Float64() * w.cfg.Width, w.rng.Float64() * w.cfg.Height
}

func (w *World) randomRadius() float64 {
	lo, hi := w.cfg.HazardRadiusMin, w.cfg.HazardRadiusMax
	return lo + w.rng.Float64()*(hi-lo)
}

// freePoint samples an interior point outside every obstacle and quicksand disk.
func (w *World) freePoint() (float64, float64, error) {
	for n := 0; n < w.cfg.PlacementAttempts; n++ {
		x, y := w.randomPoint()
		if !w.bounds.Interior(x, y) || w.inHazard(x, y) {
			continue
		}
		return x, y, nil
	}
	return 0, 0, fmt.Errorf("%w: no free point after %d attempts", ErrPlacementStalled, w.cfg.PlacementAttempts)
}

func (w *World) inHazard(x, y float64) bool {
	if w.inObstacle(x, y) {
		return true
	}
	for _, q := range w.quicksands {
		if q.Contains(x, y) {
			return true
		}
	}
	return false
}

func (w *World) inObstacle(x, y float64) bool {
	for _, o := range w.obstacles {
		if o.Contains(x, y) {
			return true
		}
	}
	return false
}

// free reports whether a robot may end a tick at (x,y).
func (w *World) free(x, y float64) bool {
	return w.bounds.Interior(x, y) && !w.inObstacle(x, y)
}

func (w *World) newRobotID() (string, error) {
	id, err := uuid.NewRandomFromReader(w.src)
	if err != nil {
		return "", fmt.Errorf("robot id: %w", err)
	}
	return id.String(), nil
}

func (w *World) SetTickLogger(l TickLogger)                    { w.tickLogger = l }
func (w *World) SetAuditLogger(l AuditLogger)                  { w.auditLogger = l }
func (w *World) SetMetricsSink(s MetricsSink)                  { w.metricsSink = s }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) Config() WorldConfig { return w.cfg }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

// Running is false once the mine collection is empty.
// It must be read from the goroutine driving the world; other goroutines use Metrics().
func (w *World) Running() bool { return w.running }

// Robots returns copies of the robots in their stable order.
func (w *World) Robots() []Robot {
	out := make([]Robot, 0, len(w.robots))
	for _, r := range w.robots {
		out = append(out, *r)
	}
	return out
}

func (w *World) Obstacles() []Obstacle   { return append([]Obstacle(nil), w.obstacles...) }
func (w *World) Quicksands() []Quicksand { return append([]Quicksand(nil), w.quicksands...) }

func (w *World) Mines() []Mine {
	out := make([]Mine, 0, w.mines.Len())
	w.mines.each(func(_ Handle, m Mine) { out = append(out, m) })
	return out
}

func (w *World) Markers() []Marker {
	out := make([]Marker, 0, w.markers.Len())
	w.markers.each(func(_ Handle, m Marker) { out = append(out, m) })
	return out
}

func (w *World) otherRobotOff(self *Robot, x, y float64) bool {
	for _, o := range w.robots {
		if o == self {
			continue
		}
		if !o.at(x, y) {
			return true
		}
	}
	return false
}
