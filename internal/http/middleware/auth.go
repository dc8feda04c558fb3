package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/grammarheroes/backend/internal/http/response"
	"github.com/grammarheroes/backend/internal/platform/apierr"
	"github.com/grammarheroes/backend/internal/platform/ctxutil"
	"github.com/grammarheroes/backend/internal/platform/logger"
	"github.com/grammarheroes/backend/internal/services"
)

type AuthMiddleware struct {
	log      *logger.Logger
	sessions services.SessionService
}

func NewAuthMiddleware(baseLog *logger.Logger, sessions services.SessionService) *AuthMiddleware {
	return &AuthMiddleware{
		log:      baseLog.With("middleware", "AuthMiddleware"),
		sessions: sessions,
	}
}

// RequireAuth verifies the bearer token and arbitrates session authority.
// A superseded credential gets the session_terminated code so the client can
// show "logged in on another device" instead of a generic login prompt.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			response.RespondAPIError(c, apierr.Unauthorized(nil))
			c.Abort()
			return
		}

		sess, err := am.sessions.Authenticate(c.Request.Context(), token)
		if err != nil {
			if apierr.IsCode(err, apierr.CodeSessionTerminated) {
				am.log.Debug("rejected superseded credential")
			}
			response.RespondAPIError(c, err)
			c.Abort()
			return
		}
		if sess.Player == nil || sess.Player.ID == uuid.Nil {
			response.RespondAPIError(c, apierr.Unauthorized(nil))
			c.Abort()
			return
		}

		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			PlayerID:  sess.Player.ID,
			IssueTime: sess.IssueTime,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
