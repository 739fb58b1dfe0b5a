package observerproto

// Version is the observer protocol version.
const Version = "0.1"

// Message types.
const (
	TypeSubscribe = "SUBSCRIBE"
	TypeTick      = "TICK"
	TypeError     = "ERROR"
)

// Client -> Server. First message on the observer WS connection, and can be re-sent to update settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Shapes are the per-entity render descriptors; metrics are always sent.
	IncludeShapes bool `json:"include_shapes"`
	IncludeAudits bool `json:"include_audits"`
}

// HTTP response for GET /admin/v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	Running         bool        `json:"running"`
	WorldParams     WorldParams `json:"world_params"`
	Series          []string    `json:"series"`
}

type WorldParams struct {
	TickRateHz int     `json:"tick_rate_hz"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Seed       int64   `json:"seed"`
	Robots     int     `json:"robots"`
	Obstacles  int     `json:"obstacles"`
	Quicksands int     `json:"quicksands"`
	Mines      int     `json:"mines"`
	Speed      float64 `json:"speed"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Running         bool   `json:"running"`

	Metrics Metrics      `json:"metrics"`
	Shapes  []Shape      `json:"shapes,omitempty"`
	Audits  []AuditEntry `json:"audits,omitempty"`
}

type Metrics struct {
	MinesRemaining    int `json:"mines_remaining"`
	DangerMarkers     int `json:"danger_markers"`
	IndicationMarkers int `json:"indication_markers"`
	MinesDefused      int `json:"mines_defused_cumulative"`
	QuicksandSteps    int `json:"quicksand_steps_cumulative"`
}

// Shape is a render descriptor. X/Y are normalized to [0,1] against the arena bounds.
type Shape struct {
	Kind   string  `json:"kind"`
	Shape  string  `json:"shape"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Layer  int     `json:"layer"`
	Color  string  `json:"color"`
	Filled bool    `json:"filled"`

	// Circles.
	R float64 `json:"r,omitempty"`

	// Arrow heads (robots).
	ID    string   `json:"id,omitempty"`
	S     float64  `json:"s,omitempty"`
	Angle *float64 `json:"angle,omitempty"`
}

type AuditEntry struct {
	Tick   uint64     `json:"tick"`
	Actor  string     `json:"actor"`
	Action string     `json:"action"`
	Pos    [2]float64 `json:"pos"`
	Reason string     `json:"reason,omitempty"`
}

// Server -> Client. Sent before the server closes a connection it rejects.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
