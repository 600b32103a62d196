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

// ResultHandler handles stored exam results.
type ResultHandler struct {
	resultService *service.ResultService
	log           zerolog.Logger
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService, log zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
		log:           log.With().Str("component", "result_handler").Logger(),
	}
}

// SubmitResult godoc
// POST /api/resultados
// Grades a client-side attempt against the stored answer key and stores it.
// Score fields in the body are ignored.
func (h *ResultHandler) SubmitResult(c *gin.Context) {
	var req model.SubmitResultRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	detail, err := h.resultService.Submit(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		status, code := classify(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("exam_id", req.ExamID.String()).Msg("Submit result failed")
		}
		response.Fail(c, status, code)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"id":     detail.ID,
		"result": detail,
	})
}

// GetResult godoc
// GET /api/resultados/:id
// Returns a result with the per-question review.
func (h *ResultHandler) GetResult(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.resultService.Get(c.Request.Context(), id, middleware.GetUserID(c), middleware.IsAdmin(c))
	if err != nil {
		status, code := classify(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("result_id", id.String()).Msg("Get result failed")
		}
		response.Fail(c, status, code)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": detail})
}

// ListMyResults godoc
// GET /api/resultados/me?page=1&per_page=20
func (h *ResultHandler) ListMyResults(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	page, perPage := pageParams(c)

	results, pagination, err := h.resultService.ListMine(c.Request.Context(), *userID, page, perPage)
	if err != nil {
		h.log.Error().Err(err).Msg("List results failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}
