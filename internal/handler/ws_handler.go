package handler

import (
	"net/http"
	"strings"

	"github.com/certquest/arena-backend/internal/middleware"
	"github.com/certquest/arena-backend/internal/response"
	"github.com/certquest/arena-backend/internal/service"
	"github.com/certquest/arena-backend/internal/session"
	ws "github.com/certquest/arena-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a running session: every answer, navigation and timer
// tick is pushed to the client, and the client drives the session with the
// same actions as the HTTP endpoints.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/sessoes/:id?token=...
// Sends the current state on connect, then a state event per change. The
// connection is closed after the finished event.
func (h *WSHandler) SessionStream(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	caller := middleware.GetUserID(c)

	// Subscribe before upgrading so ownership and lookup errors are plain HTTP.
	updates, cancel, err := h.sessionService.Subscribe(id, caller)
	if err != nil {
		failWith(c, err)
		return
	}
	defer cancel()

	current, err := h.sessionService.Get(id, caller)
	if err != nil {
		failWith(c, err)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", id.String()).Logger()
	wsLog.Info().Msg("Client connected")

	if err := conn.WriteTyped(ws.EventFor(current)); err != nil {
		return
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for snap := range updates {
			if err := conn.WriteTyped(ws.EventFor(snap)); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed")
				return
			}
		}
		// Channel closed: the session ended (or the server is stopping).
		conn.CloseNormal("session ended")
	}()

	h.readLoop(conn, wsLog, id, caller)
	cancel()
	<-writerDone
	wsLog.Info().Msg("Client disconnected")
}

func (h *WSHandler) readLoop(conn *ws.Conn, wsLog zerolog.Logger, id uuid.UUID, caller *uuid.UUID) {
	for {
		var req ws.Request
		if err := conn.ReadRequest(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		if req.Action == ws.ActionPing {
			_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
			continue
		}

		// State changes reach the client through the subscription.
		if _, err := h.dispatch(id, caller, &req); err != nil {
			status, code := classify(err)
			if status == http.StatusInternalServerError {
				wsLog.Error().Err(err).Str("action", string(req.Action)).Msg("Action failed")
			}
			_ = conn.WriteError(string(code), response.GetMessage(code))
		}
	}
}

func (h *WSHandler) dispatch(id uuid.UUID, caller *uuid.UUID, req *ws.Request) (session.Snapshot, error) {
	switch req.Action {
	case ws.ActionSelect:
		return h.sessionService.Answer(id, caller, req.QuestionID, req.OptionID)
	case ws.ActionNavigate:
		return h.sessionService.Navigate(id, caller, req.Delta, req.Index)
	case ws.ActionKey:
		return h.sessionService.Key(id, caller, req.Key)
	case ws.ActionFinish:
		return h.sessionService.Finish(id, caller)
	default:
		return session.Snapshot{}, session.ErrUnknownKey
	}
}
