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

type EventService interface {
	CreateEvent(ctx context.Context, user domain.User, event domain.Event) (domain.Event, error)
	GetEvent(ctx context.Context, id string) (domain.EventView, error)
	ListEvents(ctx context.Context, communityID string, page, pageSize int) (domain.EventPage, error)
	DeleteEvent(ctx context.Context, user domain.User, id string) error
}

type EventHandler struct {
	svc EventService
}

func NewEventHandler(svc EventService) *EventHandler {
	return &EventHandler{
		svc: svc,
	}
}

// HandleCreateEvent godoc
// @Summary      Create an event
// @Description  Creates an event in the community. Only community managers and admins can create events.
// @Tags         events
// @Accept       json
// @Produce      json
// @Param        communityID  path      string                      true  "Community ID"
// @Param        input        body      request.CreateEventRequest  true  "Event details"
// @Success      201          {object}  domain.Event
// @Failure      400          {object}  response.Err
// @Failure      401          {object}  response.Err
// @Failure      403          {object}  response.Err
// @Failure      500          {object}  response.Err
// @Router       /communities/{communityID}/events [post]
// @Security     BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	communityID := ctx.Param("communityID")
	if err := request.ValidateID(communityID); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("communityID: %w", err)))
		return
	}

	var req request.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.CreateEvent(ctx.Request.Context(), user, domain.Event{
		CommunityID:     communityID,
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		TimeZone:        req.TimeZone,
		Location:        req.Location,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		err = fmt.Errorf("HandleCreateEvent -> h.svc.CreateEvent -> %w", err)
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// HandleListEvents godoc
// @Summary      List open events
// @Description  Lists the community's events that are upcoming or ongoing, ordered by date.
// @Tags         events
// @Produce      json
// @Param        communityID  path      string  true   "Community ID"
// @Param        page         query     int     false  "Page, from 1"
// @Param        page_size    query     int     false  "Page size, at most 100"
// @Success      200          {object}  domain.EventPage
// @Failure      400          {object}  response.Err
// @Failure      401          {object}  response.Err
// @Failure      500          {object}  response.Err
// @Router       /communities/{communityID}/events [get]
// @Security     BearerAuth
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	communityID := ctx.Param("communityID")
	if err := request.ValidateID(communityID); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("communityID: %w", err)))
		return
	}

	var q request.ListEventsQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := q.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	page, err := h.svc.ListEvents(ctx.Request.Context(), communityID, q.Page, q.PageSize)
	if err != nil {
		err = fmt.Errorf("HandleListEvents -> h.svc.ListEvents -> %w", err)
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, page)
}

// HandleGetEvent godoc
// @Summary      Get an event
// @Description  Returns the event with its computed status and remaining slots.
// @Tags         events
// @Produce      json
// @Param        eventID  path      string  true  "Event ID"
// @Success      200      {object}  domain.EventView
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID} [get]
// @Security     BearerAuth
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	view, err := h.svc.GetEvent(ctx.Request.Context(), ctx.Param("eventID"))
	if err != nil {
		err = fmt.Errorf("HandleGetEvent -> h.svc.GetEvent -> %w", err)
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, view)
}

// HandleDeleteEvent godoc
// @Summary      Delete an event
// @Description  Soft-deletes the event. Allowed for its creator and for community managers and admins.
// @Tags         events
// @Param        eventID  path  string  true  "Event ID"
// @Success      204
// @Failure      401      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /events/{eventID} [delete]
// @Security     BearerAuth
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
	user, respErr := getUserFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.DeleteEvent(ctx.Request.Context(), user, ctx.Param("eventID")); err != nil {
		err = fmt.Errorf("HandleDeleteEvent -> h.svc.DeleteEvent -> %w", err)
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.Status(http.StatusNoContent)
}
