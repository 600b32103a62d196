package handler

import (
	"net/http"

	"github.com/certquest/arena-backend/internal/middleware"
	"github.com/certquest/arena-backend/internal/model"
	"github.com/certquest/arena-backend/internal/response"
	"github.com/certquest/arena-backend/internal/service"
	"github.com/certquest/arena-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SessionHandler drives timed exam attempts over plain HTTP. The same
// operations are available over the session WebSocket.
type SessionHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "session_handler").Logger(),
	}
}

// StartSession godoc
// POST /api/simulados/:id/sessoes
// Starts an attempt. The body is optional: {"language": "en"}.
// Anonymous attempts are allowed; their results carry no user.
func (h *SessionHandler) StartSession(c *gin.Context) {
	examID, ok := pathID(c, "id")
	if !ok {
		return
	}

	req := model.StartSessionRequest{Language: c.Query("language")}
	if c.Request.ContentLength > 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	snap, err := h.sessionService.Start(c.Request.Context(), examID, req.Language, middleware.GetUserID(c))
	if err != nil {
		h.fail(c, err, "Start session failed")
		return
	}

	h.log.Info().
		Str("session_id", snap.ID.String()).
		Str("exam_id", examID.String()).
		Int("questions", snap.TotalQuestions).
		Msg("Session started")
	response.Success(c, http.StatusCreated, gin.H{"session": snap})
}

// GetSession godoc
// GET /api/sessoes/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	snap, err := h.sessionService.Get(id, middleware.GetUserID(c))
	if err != nil {
		h.fail(c, err, "Get session failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// Answer godoc
// POST /api/sessoes/:id/respostas
// Single choice replaces the previous answer, multiple choice toggles the option.
func (h *SessionHandler) Answer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.AnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.sessionService.Answer(id, middleware.GetUserID(c), req.QuestionID, req.OptionID)
	if err != nil {
		h.fail(c, err, "Answer failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// Navigate godoc
// POST /api/sessoes/:id/navegar
// {"delta": -1|1} moves one question, {"index": n} jumps to question n (0-based).
func (h *SessionHandler) Navigate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.sessionService.Navigate(id, middleware.GetUserID(c), req.Delta, req.Index)
	if err != nil {
		h.fail(c, err, "Navigate failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// PressKey godoc
// POST /api/sessoes/:id/teclas
func (h *SessionHandler) PressKey(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.KeyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	snap, err := h.sessionService.Key(id, middleware.GetUserID(c), req.Key)
	if err != nil {
		h.fail(c, err, "Key failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// FinishSession godoc
// POST /api/sessoes/:id/finalizar
// Grades the attempt. The result is stored asynchronously under the session id.
func (h *SessionHandler) FinishSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	snap, err := h.sessionService.Finish(id, middleware.GetUserID(c))
	if err != nil {
		h.fail(c, err, "Finish session failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session":   snap,
		"result_id": snap.ID,
	})
}

// AbandonSession godoc
// DELETE /api/sessoes/:id
// Drops the attempt without storing a result.
func (h *SessionHandler) AbandonSession(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.sessionService.Abandon(id, middleware.GetUserID(c)); err != nil {
		h.fail(c, err, "Abandon session failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "session abandoned"})
}

func (h *SessionHandler) fail(c *gin.Context, err error, msg string) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg(msg)
	}
	response.Fail(c, status, code)
}
