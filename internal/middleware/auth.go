package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eduverse/tutorhub-server-go/internal/features/identity"
	"github.com/eduverse/tutorhub-server-go/internal/store"
	jwtutil "github.com/eduverse/tutorhub-server-go/internal/utils/jwt"
	"github.com/eduverse/tutorhub-server-go/pkg/response"
	"github.com/eduverse/tutorhub-server-go/pkg/types"
)

const accountKey = "account"

// Auth holds dependencies for the session-validating middleware.
type Auth struct {
	store     *store.Store
	jwtSecret string
	logger    *slog.Logger
}

// NewAuth constructs the auth middleware.
func NewAuth(st *store.Store, jwtSecret string, logger *slog.Logger) *Auth {
	return &Auth{store: st, jwtSecret: jwtSecret, logger: logger}
}

// Authenticate verifies the bearer token and re-validates the session's
// device token against the store. A session issued elsewhere since this token
// was minted fails here, which is the single-device enforcement point.
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Error(c, http.StatusUnauthorized, "No token provided", nil)
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, "No token provided", nil)
			c.Abort()
			return
		}

		claims, err := jwtutil.VerifyToken(tokenString, a.jwtSecret)
		if err != nil {
			switch {
			case errors.Is(err, jwtutil.ErrExpiredToken):
				response.ErrorWithLog(a.logger, c, http.StatusUnauthorized, "Token expired", err)
			default:
				response.ErrorWithLog(a.logger, c, http.StatusUnauthorized, "Invalid token", err)
			}
			c.Abort()
			return
		}

		acct, err := identity.ValidateSession(c.Request.Context(), a.store, claims.Email, claims.DeviceToken)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "Session is no longer valid. Please log in again.", nil)
			c.Abort()
			return
		}

		c.Set(accountKey, acct)
		c.Next()
	}
}

// RequireAdmin gates a route to admin accounts. Must run after Authenticate.
func (a *Auth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		acct, ok := AccountFromContext(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "User not authenticated", nil)
			c.Abort()
			return
		}

		if acct.Role != types.RoleAdmin {
			response.Error(c, http.StatusForbidden, "Access denied: Insufficient permissions.", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// Authenticated returns the handler chain for student-accessible routes.
func (a *Auth) Authenticated() []gin.HandlerFunc {
	return []gin.HandlerFunc{a.Authenticate()}
}

// AdminOnly returns the handler chain for admin-console routes.
func (a *Auth) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{a.Authenticate(), a.RequireAdmin()}
}

// AccountFromContext retrieves the authenticated account from the Gin context.
func AccountFromContext(c *gin.Context) (identity.Account, bool) {
	val, exists := c.Get(accountKey)
	if !exists {
		return identity.Account{}, false
	}

	acct, ok := val.(identity.Account)
	return acct, ok
}
