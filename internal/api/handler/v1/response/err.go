package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vietanh2810/community-events/internal/domain"
)

// Err is the body of every error response.
type Err struct {
	Err        error            `json:"-"`
	StatusCode int              `json:"status_code"`
	Code       domain.ErrorCode `json:"code"`
	Message    string           `json:"message"`
}

func (e *Err) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Err.Error()
}

func RenderErr(ctx *gin.Context, e *Err) {
	if e.StatusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", ctx.FullPath()),
			zap.String("request_id", requestid.Get(ctx)),
			zap.Error(e.Err))
	}

	ctx.AbortWithStatusJSON(e.StatusCode, e)
}

func ErrBadRequest(err error) *Err {
	return &Err{
		Err:        err,
		StatusCode: http.StatusBadRequest,
		Code:       domain.CodeValidation,
		Message:    err.Error(),
	}
}

func ErrNotFound(resource, key string, value any) *Err {
	err := fmt.Errorf("%s with %s %v not found", resource, key, value)
	return &Err{
		Err:        err,
		StatusCode: http.StatusNotFound,
		Code:       domain.CodeNotFound,
		Message:    err.Error(),
	}
}

func ErrUnauthenticated(err error) *Err {
	return &Err{
		Err:        err,
		StatusCode: http.StatusUnauthorized,
		Code:       domain.CodeUnauthenticated,
		Message:    "authentication required",
	}
}

func ErrPermissionDenied(err error) *Err {
	return &Err{
		Err:        err,
		StatusCode: http.StatusForbidden,
		Code:       domain.CodeUnauthorized,
		Message:    "permission denied",
	}
}

func ErrInternalServerError(err error) *Err {
	return &Err{
		Err:        err,
		StatusCode: http.StatusInternalServerError,
		Code:       domain.CodeInternal,
		Message:    "internal server error",
	}
}

var statusByCode = map[domain.ErrorCode]int{
	domain.CodeValidation:       http.StatusBadRequest,
	domain.CodeNotFound:         http.StatusNotFound,
	domain.CodeCapacityExceeded: http.StatusConflict,
	domain.CodeUnauthenticated:  http.StatusUnauthorized,
	domain.CodeUnauthorized:     http.StatusForbidden,
	domain.CodeInvalidPayload:   http.StatusUnprocessableEntity,
	domain.CodeInternal:         http.StatusInternalServerError,
}

// FromError maps a service error to its response. Errors that carry a
// domain code keep it; anything else is an internal error.
func FromError(err error) *Err {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		return ErrInternalServerError(err)
	}

	status, ok := statusByCode[derr.Code]
	if !ok || derr.Code == domain.CodeInternal {
		return ErrInternalServerError(err)
	}
	return &Err{
		Err:        err,
		StatusCode: status,
		Code:       derr.Code,
		Message:    derr.Message,
	}
}
