package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/community-events/internal/api/handler/v1/response"
	"github.com/vietanh2810/community-events/internal/api/middleware"
	"github.com/vietanh2810/community-events/internal/domain"
)

var errNoUser = errors.New("no authenticated user in context")

func getUserFromContext(ctx *gin.Context) (domain.User, *response.Err) {
	v, ok := ctx.Get(middleware.ContextKeyUser)
	if !ok {
		return domain.User{}, response.ErrUnauthenticated(errNoUser)
	}
	user, ok := v.(domain.User)
	if !ok || user.ID == "" {
		return domain.User{}, response.ErrUnauthenticated(errNoUser)
	}
	return user, nil
}

// HandleHealthcheck godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       / [get]
func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}
