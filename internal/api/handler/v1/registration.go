package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/community-events/internal/api/handler/v1/response"
	"github.com/vietanh2810/community-events/internal/domain"
)

type RegistrationService interface {
	Register(ctx context.Context, user domain.User, eventID string) (domain.RegistrationResult, error)
	GetUserRegistration(ctx context.Context, user domain.User, eventID string) (domain.Registration, error)
	ActiveCount(ctx context.Context, eventID string) (int, error)
	Cancel(ctx context.Context, user domain.User, eventID string) (domain.Registration, error)
	ListRegistrations(ctx context.Context, user domain.User, eventID string) ([]domain.Registration, error)
}

type RegistrationHandler struct {
	svc RegistrationService
}

func NewRegistrationHandler(svc RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{
		svc: svc,
	}
}

// HandleRegister godoc
// @Summary      Register for an event
// @Description  Registers the caller and issues a signed ticket. Registering again returns the existing registration with 200.
// @Tags         registrations
// @Produce      json
// @Param        eventID  path      string  true  "Event ID"
// @Success      201      {object}  response.RegistrationResponse
// @Success      200      {object}  response.RegistrationResponse
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/register [post]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleRegister(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	res, err := h.svc.Register(ctx.Request.Context(), user, ctx.Param("eventID"))
	if err != nil {
		err = fmt.Errorf("HandleRegister -> h.svc.Register -> %w", err)
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	ctx.JSON(status, response.NewRegistrationResponse(res))
}

// HandleGetMyRegistration godoc
// @Summary      Get my registration
// @Description  Returns the caller's active registration for the event, or the latest cancelled one.
// @Tags         registrations
// @Produce      json
// @Param        eventID  path      string  true  "Event ID"
// @Success      200      {object}  domain.Registration
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/registration [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleGetMyRegistration(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	reg, err := h.svc.GetUserRegistration(ctx.Request.Context(), user, ctx.Param("eventID"))
	if err != nil {
		err = fmt.Errorf("HandleGetMyRegistration -> h.svc.GetUserRegistration -> %w", err)
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

// HandleCancel godoc
// @Summary      Cancel my registration
// @Tags         registrations
// @Produce      json
// @Param        eventID  path      string  true  "Event ID"
// @Success      200      {object}  domain.Registration
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/registration [delete]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleCancel(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	reg, err := h.svc.Cancel(ctx.Request.Context(), user, ctx.Param("eventID"))
	if err != nil {
		err = fmt.Errorf("HandleCancel -> h.svc.Cancel -> %w", err)
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, reg)
}

// HandleListRegistrations godoc
// @Summary      Event roster
// @Description  Lists every registration of the event, cancelled ones included. Staff only.
// @Tags         registrations
// @Produce      json
// @Param        eventID  path      string  true  "Event ID"
// @Success      200      {array}   domain.Registration
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/registrations [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleListRegistrations(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	regs, err := h.svc.ListRegistrations(ctx.Request.Context(), user, ctx.Param("eventID"))
	if err != nil {
		err = fmt.Errorf("HandleListRegistrations -> h.svc.ListRegistrations -> %w", err)
		response.RenderErr(ctx, response.FromError(err))
		return
	}
	if regs == nil {
		regs = []domain.Registration{}
	}

	ctx.JSON(http.StatusOK, regs)
}

// HandleActiveCount godoc
// @Summary      Count active registrations
// @Tags         registrations
// @Produce      json
// @Param        eventID  path      string  true  "Event ID"
// @Success      200      {object}  response.ActiveCountResponse
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID}/registrations/count [get]
// @Security     BearerAuth
func (h *RegistrationHandler) HandleActiveCount(ctx *gin.Context) {
	eventID := ctx.Param("eventID")
	n, err := h.svc.ActiveCount(ctx.Request.Context(), eventID)
	if err != nil {
		err = fmt.Errorf("HandleActiveCount -> h.svc.ActiveCount -> %w", err)
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.ActiveCountResponse{EventID: eventID, Count: n})
}
