package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer         Action = "answer"
	ActionFocusLost      Action = "focus_lost"
	ActionFullscreenExit Action = "fullscreen_exit"
	ActionFrame          Action = "frame"
	ActionFinish         Action = "finish"
	ActionPing           Action = "ping"
)

// RequestPayload is the single client message shape. The action selects
// which fields are meaningful; unused fields stay zero.
type RequestPayload struct {
	Action   Action `json:"action"`
	Index    int    `json:"index,omitempty"`
	Value    string `json:"value,omitempty"`
	Reason   string `json:"reason,omitempty"`
	ImageB64 string `json:"image_b64,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSaved     Event = "saved"
	EventWarning   Event = "warning"
	EventExpired   Event = "expired"
	EventFinalized Event = "finalized"
	EventPong      Event = "pong"
)

// SavedResponse acknowledges an autosaved answer.
type SavedResponse struct {
	Event Event `json:"event"`
	Index int   `json:"index"`
}

// WarningResponse pushes a warning increment to the client.
type WarningResponse struct {
	Event     Event  `json:"event"`
	Count     int    `json:"count"`
	Threshold int    `json:"threshold"`
	Reason    string `json:"reason"`
}

// ExpiredResponse tells the client the countdown hit zero.
type ExpiredResponse struct {
	Event Event `json:"event"`
}

// FinalizedResponse carries the graded outcome of the session.
type FinalizedResponse struct {
	Event                  Event  `json:"event"`
	AttemptID              string `json:"attempt_id"`
	Status                 string `json:"status"`
	Score                  int    `json:"score"`
	Feedback               string `json:"feedback"`
	DisqualificationReason string `json:"disqualification_reason,omitempty"`
	WarningCount           int    `json:"warning_count"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
