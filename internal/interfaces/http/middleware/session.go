package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/merchantops/backend/internal/domain/audit"
	"github.com/merchantops/backend/internal/infrastructure/auth"
	"github.com/merchantops/backend/internal/infrastructure/logger"
	"github.com/merchantops/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Session context keys
const (
	SessionClaimsKey = "session_claims"
	SessionActorKey  = "session_actor"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// SessionValidator resolves a session token to claims
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*auth.Claims, error)
}

// SessionAuthConfig holds configuration for SessionAuth
type SessionAuthConfig struct {
	Validator SessionValidator
	// CookieName is the HTTP-only cookie carrying the session token
	CookieName string
	// AllowBearer also accepts "Authorization: Bearer <token>" when no cookie is sent
	AllowBearer bool
	Logger      *zap.Logger
}

// SessionAuth validates the session on every request. A request without a
// valid session is answered with 401 and never reaches a handler.
func SessionAuth(cfg SessionAuthConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		token := sessionToken(c, cfg)
		if token == "" {
			abortUnauthorized(c, "Authentication required")
			return
		}

		claims, err := cfg.Validator.Validate(c.Request.Context(), token)
		if err != nil {
			log.Warn("Session validation failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			abortUnauthorized(c, unauthorizedMessage(err))
			return
		}

		actor := audit.Actor{
			ID:        claims.ActorID(),
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		c.Set(SessionClaimsKey, claims)
		c.Set(SessionActorKey, actor)

		ctx, _ := logger.WithUserID(c.Request.Context(), logger.FromContext(c.Request.Context()), claims.UserID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func sessionToken(c *gin.Context, cfg SessionAuthConfig) string {
	if cookie, err := c.Cookie(cfg.CookieName); err == nil && cookie != "" {
		return cookie
	}
	if !cfg.AllowBearer {
		return ""
	}
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Session has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		return "Session has been revoked"
	default:
		return "Invalid session"
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, getRequestID(c)))
}

// GetSessionClaims returns the claims stored by SessionAuth, or nil
func GetSessionClaims(c *gin.Context) *auth.Claims {
	if v, exists := c.Get(SessionClaimsKey); exists {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetActor returns the audit actor of the authenticated request
func GetActor(c *gin.Context) (audit.Actor, bool) {
	if v, exists := c.Get(SessionActorKey); exists {
		if actor, ok := v.(audit.Actor); ok && actor.ID != "" {
			return actor, true
		}
	}
	return audit.Actor{}, false
}
