package websocket

import "github.com/certquest/arena-backend/internal/session"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect   Action = "select"
	ActionNavigate Action = "navigate"
	ActionKey      Action = "key"
	ActionFinish   Action = "finish"
	ActionPing     Action = "ping"
)

// Request is one client message. Which fields are read depends on Action:
// select uses QuestionID and OptionID, navigate uses Delta or Index, key
// uses Key.
type Request struct {
	Action     Action `json:"action"`
	QuestionID string `json:"question_id,omitempty"`
	OptionID   string `json:"option_id,omitempty"`
	Delta      int    `json:"delta,omitempty"`
	Index      *int   `json:"index,omitempty"`
	Key        string `json:"key,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState    Event = "state"
	EventFinished Event = "finished"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// StateEvent carries the session state after every change and timer tick.
type StateEvent struct {
	Event   Event            `json:"event"`
	Session session.Snapshot `json:"session"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// EventFor picks the event a snapshot is sent as.
func EventFor(snap session.Snapshot) StateEvent {
	ev := EventState
	if snap.State == session.StateFinished || snap.State == session.StateAbandoned {
		ev = EventFinished
	}
	return StateEvent{Event: ev, Session: snap}
}
