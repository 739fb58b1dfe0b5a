package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"deminer.ai/internal/persistence/indexdb"
	"deminer.ai/internal/sim/world"
)

// writeWorldMetrics renders the world gauges in the Prometheus text format.
func writeWorldMetrics(rw io.Writer, worldID string, w *world.World) {
	m := w.Metrics()
	tick := w.CurrentTick()
	if m.Tick != 0 {
		tick = m.Tick
	}
	running := 0
	if m.Running {
		running = 1
	}

	fmt.Fprintf(rw, "# HELP deminer_world_tick Current world tick.\n")
	fmt.Fprintf(rw, "# TYPE deminer_world_tick gauge\n")
	fmt.Fprintf(rw, "deminer_world_tick{world=%q} %d\n", worldID, tick)

	fmt.Fprintf(rw, "# HELP deminer_world_running Whether mines remain (1) or the run is over (0).\n")
	fmt.Fprintf(rw, "# TYPE deminer_world_running gauge\n")
	fmt.Fprintf(rw, "deminer_world_running{world=%q} %d\n", worldID, running)

	fmt.Fprintf(rw, "# HELP deminer_world_robots Number of robots in the world.\n")
	fmt.Fprintf(rw, "# TYPE deminer_world_robots gauge\n")
	fmt.Fprintf(rw, "deminer_world_robots{world=%q} %d\n", worldID, m.Robots)

	fmt.Fprintf(rw, "# HELP deminer_world_observers Current number of observer sessions.\n")
	fmt.Fprintf(rw, "# TYPE deminer_world_observers gauge\n")
	fmt.Fprintf(rw, "deminer_world_observers{world=%q} %d\n", worldID, m.Observers)

	fmt.Fprintf(rw, "# HELP deminer_world_step_ms Last tick step duration in milliseconds.\n")
	fmt.Fprintf(rw, "# TYPE deminer_world_step_ms gauge\n")
	fmt.Fprintf(rw, "deminer_world_step_ms{world=%q} %.3f\n", worldID, m.StepMS)

	fmt.Fprintf(rw, "# HELP deminer_mines_remaining Mines not yet defused.\n")
	fmt.Fprintf(rw, "# TYPE deminer_mines_remaining gauge\n")
	fmt.Fprintf(rw, "deminer_mines_remaining{world=%q} %d\n", worldID, m.Metrics.MinesRemaining)

	fmt.Fprintf(rw, "# HELP deminer_markers Markers on the field by purpose.\n")
	fmt.Fprintf(rw, "# TYPE deminer_markers gauge\n")
	fmt.Fprintf(rw, "deminer_markers{world=%q,purpose=%q} %d\n", worldID, world.MarkerDanger.String(), m.Metrics.DangerMarkers)
	fmt.Fprintf(rw, "deminer_markers{world=%q,purpose=%q} %d\n", worldID, world.MarkerIndication.String(), m.Metrics.IndicationMarkers)

	fmt.Fprintf(rw, "# HELP deminer_mines_defused_total Mines defused since the run started.\n")
	fmt.Fprintf(rw, "# TYPE deminer_mines_defused_total counter\n")
	fmt.Fprintf(rw, "deminer_mines_defused_total{world=%q} %d\n", worldID, m.Metrics.MinesDefused)

	fmt.Fprintf(rw, "# HELP deminer_quicksand_steps_total Robot steps taken inside quicksand.\n")
	fmt.Fprintf(rw, "# TYPE deminer_quicksand_steps_total counter\n")
	fmt.Fprintf(rw, "deminer_quicksand_steps_total{world=%q} %d\n", worldID, m.Metrics.QuicksandSteps)
}

func writeIndexMetrics(rw io.Writer, worldID string, s indexdb.Stats) {
	fmt.Fprintf(rw, "# HELP deminer_index_queue_depth Index writer queue depth.\n")
	fmt.Fprintf(rw, "# TYPE deminer_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "deminer_index_queue_depth{world=%q} %d\n", worldID, s.QueueDepth)

	fmt.Fprintf(rw, "# HELP deminer_index_queue_capacity Index writer queue capacity.\n")
	fmt.Fprintf(rw, "# TYPE deminer_index_queue_capacity gauge\n")
	fmt.Fprintf(rw, "deminer_index_queue_capacity{world=%q} %d\n", worldID, s.QueueCapacity)

	fmt.Fprintf(rw, "# HELP deminer_index_dropped_total Index writes dropped because the queue was full.\n")
	fmt.Fprintf(rw, "# TYPE deminer_index_dropped_total counter\n")
	fmt.Fprintf(rw, "deminer_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "tick", s.DropTickTotal)
	fmt.Fprintf(rw, "deminer_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "metrics", s.DropMetricsTotal)
	fmt.Fprintf(rw, "deminer_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "audit", s.DropAuditTotal)
	fmt.Fprintf(rw, "deminer_index_dropped_total{world=%q,kind=%q} %d\n", worldID, "snapshot", s.DropSnapshotTotal)
}

// metricsSeriesHandler serves stored per-tick metrics: ?from=<tick>&limit=<n>.
func metricsSeriesHandler(idx *indexdb.SQLiteIndex) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		var from uint64
		if v := r.URL.Query().Get("from"); v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				http.Error(rw, "bad from", http.StatusBadRequest)
				return
			}
			from = n
		}
		limit := 1000
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(rw, "bad limit", http.StatusBadRequest)
				return
			}
			limit = n
		}
		rows, err := idx.QueryMetrics(r.Context(), from, limit)
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(struct {
			Series []string             `json:"series"`
			Rows   []indexdb.MetricsRow `json:"rows"`
		}{
			Series: world.SeriesLabels(),
			Rows:   rows,
		})
	}
}
