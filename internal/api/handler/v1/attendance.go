package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/community-events/internal/api/handler/v1/request"
	"github.com/vietanh2810/community-events/internal/api/handler/v1/response"
	"github.com/vietanh2810/community-events/internal/domain"
)

type AttendanceService interface {
	MarkAttendance(ctx context.Context, scanner domain.User, payload string) (domain.AttendanceResult, error)
}

type AttendanceHandler struct {
	svc AttendanceService
}

func NewAttendanceHandler(svc AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{
		svc: svc,
	}
}

// HandleScan godoc
// @Summary      Scan a ticket
// @Description  Verifies the ticket payload and marks its holder as attended. Re-scanning succeeds with already_marked set.
// @Tags         attendance
// @Accept       json
// @Produce      json
// @Param        input  body      request.ScanRequest  true  "Scanned ticket"
// @Success      200    {object}  domain.AttendanceResult
// @Failure      400    {object}  response.Err
// @Failure      401    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      404    {object}  response.Err
// @Failure      422    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /attendance/scan [post]
// @Security     BearerAuth
func (h *AttendanceHandler) HandleScan(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.ScanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	res, err := h.svc.MarkAttendance(ctx.Request.Context(), user, req.Payload)
	if err != nil {
		err = fmt.Errorf("HandleScan -> h.svc.MarkAttendance -> %w", err)
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, res)
}
