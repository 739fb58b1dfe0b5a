package world

// Series labels, in the order dashboards chart them.
const (
	SeriesMines             = "Mines"
	SeriesDangerMarkers     = "Danger markers"
	SeriesIndicationMarkers = "Indication markers"
	SeriesMinesDefused      = "Mines defused"
	SeriesQuicksandSteps    = "Steps in quicksand"
)

func SeriesLabels() []string {
	return []string{SeriesMines, SeriesDangerMarkers, SeriesIndicationMarkers, SeriesMinesDefused, SeriesQuicksandSteps}
}

// Metrics is the per-tick snapshot handed to the reporting layer.
type Metrics struct {
	MinesRemaining    int `json:"mines_remaining"`
	DangerMarkers     int `json:"danger_markers"`
	IndicationMarkers int `json:"indication_markers"`
	MinesDefused      int `json:"mines_defused_cumulative"`
	QuicksandSteps    int `json:"quicksand_steps_cumulative"`
}

// Values returns the metrics in SeriesLabels order.
func (m Metrics) Values() []int {
	return []int{m.MinesRemaining, m.DangerMarkers, m.IndicationMarkers, m.MinesDefused, m.QuicksandSteps}
}

// CollectMetrics reads the current counts. It does not mutate the world.
func (w *World) CollectMetrics() Metrics {
	m := Metrics{
		MinesRemaining: w.mines.Len(),
		MinesDefused:   w.minesDefused,
		QuicksandSteps: w.quicksandSteps,
	}
	w.markers.each(func(_ Handle, mk Marker) {
		switch mk.Purpose {
		case MarkerDanger:
			m.DangerMarkers++
		case MarkerIndication:
			m.IndicationMarkers++
		}
	})
	return m
}

// WorldMetrics is a thread-safe read-only view of key world runtime signals.
// It is updated from the world loop goroutine and read from HTTP handlers/tests.
type WorldMetrics struct {
	Tick      uint64  `json:"tick"`
	Running   bool    `json:"running"`
	Robots    int     `json:"robots"`
	Observers int     `json:"observers"`
	StepMS    float64 `json:"step_ms"`

	Metrics Metrics `json:"metrics"`
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	v := w.metrics.Load()
	if v == nil {
		return WorldMetrics{}
	}
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}

func (w *World) publishMetrics(stepMS float64) {
	w.metrics.Store(WorldMetrics{
		Tick:      w.tick.Load(),
		Running:   w.running,
		Robots:    len(w.robots),
		Observers: len(w.observers),
		StepMS:    stepMS,
		Metrics:   w.CollectMetrics(),
	})
}

// MetricsRecorder keeps every recorded snapshot in memory, one series per label.
type MetricsRecorder struct {
	Ticks  []uint64
	series [][]int
}

func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{series: make([][]int, len(SeriesLabels()))}
}

func (r *MetricsRecorder) RecordMetrics(tick uint64, m Metrics) error {
	r.Ticks = append(r.Ticks, tick)
	for i, v := range m.Values() {
		r.series[i] = append(r.series[i], v)
	}
	return nil
}

// Series returns the recorded values for label, or nil for an unknown label.
func (r *MetricsRecorder) Series(label string) []int {
	for i, l := range SeriesLabels() {
		if l == label {
			return r.series[i]
		}
	}
	return nil
}

func (r *MetricsRecorder) Len() int { return len(r.Ticks) }
