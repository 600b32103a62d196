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

// QuestionHandler handles the questions of an exam.
type QuestionHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(examService *service.ExamService, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		examService: examService,
		log:         log.With().Str("component", "question_handler").Logger(),
	}
}

// ListQuestions godoc
// GET /api/simulados/:id/questoes?language=pt
// Admins receive the answer key; everyone else gets the taker view.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	examID, ok := pathID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	language := c.Query("language")
	if err := service.ValidateLanguage(language); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidLanguage)
		return
	}

	exam, err := h.examService.GetByID(ctx, examID)
	if err != nil {
		h.fail(c, err, "Get exam failed")
		return
	}
	admin := middleware.IsAdmin(c)
	if !exam.Active && !admin {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	questions, err := h.examService.Questions(ctx, examID, language)
	if err != nil {
		h.fail(c, err, "List questions failed")
		return
	}

	if admin {
		response.Success(c, http.StatusOK, gin.H{"questions": questions})
		return
	}
	view := make([]model.QuestionForTaker, len(questions))
	for i := range questions {
		view[i] = questions[i].ForTaker()
	}
	response.Success(c, http.StatusOK, gin.H{"questions": view})
}

// AddQuestion godoc
// POST /api/simulados/:id/questoes
// Single choice questions need exactly one correct option, multiple choice at least one.
func (h *QuestionHandler) AddQuestion(c *gin.Context) {
	examID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.examService.AddQuestion(c.Request.Context(), examID, &req)
	if err != nil {
		h.fail(c, err, "Add question failed")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": q})
}

// DeleteQuestion godoc
// DELETE /api/simulados/:id/questoes/:question_id
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	examID, ok := pathID(c, "id")
	if !ok {
		return
	}
	questionID, ok := pathID(c, "question_id")
	if !ok {
		return
	}

	if err := h.examService.DeleteQuestion(c.Request.Context(), examID, questionID); err != nil {
		h.fail(c, err, "Delete question failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "question deleted"})
}

func (h *QuestionHandler) fail(c *gin.Context, err error, msg string) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg(msg)
	}
	response.Fail(c, status, code)
}
