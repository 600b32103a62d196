package handler

import (
	"errors"
	"net/http"

	"github.com/certquest/arena-backend/internal/middleware"
	"github.com/certquest/arena-backend/internal/model"
	"github.com/certquest/arena-backend/internal/response"
	"github.com/certquest/arena-backend/internal/service"
	"github.com/certquest/arena-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PackageHandler handles exam packages and the auto-bundler.
type PackageHandler struct {
	packageService *service.PackageService
	log            zerolog.Logger
}

// NewPackageHandler creates a new PackageHandler.
func NewPackageHandler(packageService *service.PackageService, log zerolog.Logger) *PackageHandler {
	return &PackageHandler{
		packageService: packageService,
		log:            log.With().Str("component", "package_handler").Logger(),
	}
}

// ListPackages godoc
// GET /api/pacotes?page=1&per_page=20
// Each package carries its exams and computed pricing.
func (h *PackageHandler) ListPackages(c *gin.Context) {
	page, perPage := pageParams(c)
	activeOnly := !(middleware.IsAdmin(c) && c.Query("all") == "true")

	packages, pagination, err := h.packageService.List(c.Request.Context(), activeOnly, page, perPage)
	if err != nil {
		h.fail(c, err, "List packages failed")
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"packages": packages}, pagination)
}

// GetPackage godoc
// GET /api/pacotes/:id
func (h *PackageHandler) GetPackage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	pkg, err := h.packageService.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "Get package failed")
		return
	}
	if !pkg.Active && !middleware.IsAdmin(c) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"package": pkg})
}

// CreatePackage godoc
// POST /api/pacotes
func (h *PackageHandler) CreatePackage(c *gin.Context) {
	var req model.PackageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pkg, err := h.packageService.Create(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err, "Create package failed")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"package": pkg})
}

// UpdatePackage godoc
// PUT /api/pacotes/:id
// Replaces the package fields and its exam list.
func (h *PackageHandler) UpdatePackage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.PackageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pkg, err := h.packageService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.fail(c, err, "Update package failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"package": pkg})
}

// DeletePackage godoc
// DELETE /api/pacotes/:id
func (h *PackageHandler) DeletePackage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.packageService.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err, "Delete package failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "package deleted"})
}

// AutoBundle godoc
// POST /api/pacotes/criar-automaticos
// Groups paid exams by title into packages. Nothing is stored when the run fails.
func (h *PackageHandler) AutoBundle(c *gin.Context) {
	report, err := h.packageService.AutoBundle(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrBundleRunning) {
			response.Fail(c, http.StatusConflict, response.ErrBundleRunning)
			return
		}
		response.FailWithDetails(c, http.StatusInternalServerError, response.ErrBundleFailed, err.Error())
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":   "automatic packages updated",
		"created":   report.Created,
		"refreshed": report.Refreshed,
		"links":     report.Links,
	})
}

func (h *PackageHandler) fail(c *gin.Context, err error, msg string) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg(msg)
	}
	response.Fail(c, status, code)
}
