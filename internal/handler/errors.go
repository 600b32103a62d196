package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/certquest/arena-backend/internal/repository"
	"github.com/certquest/arena-backend/internal/response"
	"github.com/certquest/arena-backend/internal/service"
	"github.com/certquest/arena-backend/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type errMapping struct {
	err    error
	status int
	code   response.ErrCode
}

// domainErrors translates service and session sentinels to API errors.
// Checked in order with errors.Is.
var domainErrors = []errMapping{
	{pgx.ErrNoRows, http.StatusNotFound, response.ErrNotFound},
	{session.ErrSessionNotFound, http.StatusNotFound, response.ErrSessionNotFound},
	{session.ErrNotInProgress, http.StatusConflict, response.ErrSessionNotInProgress},
	{session.ErrNoQuestions, http.StatusUnprocessableEntity, response.ErrNoQuestions},
	{session.ErrUnknownQuestion, http.StatusBadRequest, response.ErrUnknownQuestion},
	{session.ErrUnknownOption, http.StatusBadRequest, response.ErrUnknownOption},
	{session.ErrUnknownKey, http.StatusBadRequest, response.ErrUnknownKey},
	{session.ErrIndexOutOfRange, http.StatusBadRequest, response.ErrIndexOutOfRange},
	{service.ErrSessionForbidden, http.StatusForbidden, response.ErrForbidden},
	{service.ErrResultForbidden, http.StatusForbidden, response.ErrForbidden},
	{service.ErrExamNotAvailable, http.StatusConflict, response.ErrExamNotAvailable},
	{service.ErrInvalidLanguage, http.StatusBadRequest, response.ErrInvalidLanguage},
	{service.ErrInvalidQuestion, http.StatusBadRequest, response.ErrInvalidQuestion},
	{service.ErrUnknownExam, http.StatusBadRequest, response.ErrInvalidPayload},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
	{repository.ErrDuplicateEmail, http.StatusConflict, response.ErrEmailTaken},
	{service.ErrBundleRunning, http.StatusConflict, response.ErrBundleRunning},
}

// classify returns the HTTP status and error code for err. Unknown errors
// are internal.
func classify(err error) (int, response.ErrCode) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// failWith writes the error envelope for err.
func failWith(c *gin.Context, err error) {
	status, code := classify(err)
	response.Fail(c, status, code)
}

// pageParams reads ?page and ?per_page. The services clamp the values.
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	return page, perPage
}

// pathID parses the :name path parameter, writing a 400 when it is not a UUID.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
