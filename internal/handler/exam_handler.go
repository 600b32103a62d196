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

// ExamHandler handles the exam catalog.
type ExamHandler struct {
	examService *service.ExamService
	log         zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		examService: examService,
		log:         log.With().Str("component", "exam_handler").Logger(),
	}
}

// ListExams godoc
// GET /api/simulados?page=1&per_page=20&category=AWS&language=pt
// Lists active exams. Admins may pass ?all=true to include inactive ones.
func (h *ExamHandler) ListExams(c *gin.Context) {
	page, perPage := pageParams(c)

	items, pagination, err := h.examService.List(c.Request.Context(), service.ExamListParams{
		Page:       page,
		PerPage:    perPage,
		ActiveOnly: !(middleware.IsAdmin(c) && c.Query("all") == "true"),
		Category:   c.Query("category"),
		Language:   c.Query("language"),
	})
	if err != nil {
		h.fail(c, err, "List exams failed")
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": items}, pagination)
}

// GetExam godoc
// GET /api/simulados/:id
// Inactive exams are only visible to admins.
func (h *ExamHandler) GetExam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Get exam failed")
		return
	}
	if !exam.Active && !middleware.IsAdmin(c) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// CreateExam godoc
// POST /api/simulados
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err, "Create exam failed")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// UpdateExam godoc
// PUT /api/simulados/:id
// Partial update: omitted fields keep their value.
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.fail(c, err, "Update exam failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/simulados/:id
// Questions, options and package links go with the exam.
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Delete exam failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "exam deleted"})
}

func (h *ExamHandler) fail(c *gin.Context, err error, msg string) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg(msg)
	}
	response.Fail(c, status, code)
}
