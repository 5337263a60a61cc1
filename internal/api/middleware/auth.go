package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vietanh2810/community-events/internal/api/handler/v1/response"
	"github.com/vietanh2810/community-events/internal/domain"
	"github.com/vietanh2810/community-events/internal/pkg/jwthelper"
)

// ContextKeyUser holds the verified domain.User of the request.
const ContextKeyUser = "user"

var errMissingBearer = errors.New("missing bearer token")

type Authenticator struct {
	signingKey string
}

func NewAuthenticator(signingKey string) *Authenticator {
	return &Authenticator{
		signingKey: signingKey,
	}
}

// VerifyJWT rejects requests without a valid identity token and stores the
// caller under ContextKeyUser otherwise.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := strings.CutPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			response.RenderErr(ctx, response.ErrUnauthenticated(errMissingBearer))
			return
		}

		claims, err := jwthelper.ParseToken(a.signingKey, strings.TrimSpace(token))
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthenticated(err))
			return
		}

		ctx.Set(ContextKeyUser, domain.User{
			ID:   claims.Subject,
			Role: parseRole(claims.Role),
		})
		ctx.Next()
	}
}

func parseRole(role string) domain.Role {
	switch r := domain.Role(role); r {
	case domain.RoleAdmin, domain.RoleManager:
		return r
	default:
		return domain.RoleUser
	}
}
