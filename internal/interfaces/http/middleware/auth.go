// Package middleware holds the gin middleware used by the HTTP surface.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/reelgauge/reelgauge/internal/config"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

const (
	// ContextAccountID is the gin context key carrying the authenticated
	// account id.
	ContextAccountID = "account_id"
)

// AuthMiddleware resolves bearer tokens against the static token table.
type AuthMiddleware struct {
	tokens map[string]string
	admins map[string]bool
}

// NewAuthMiddleware builds the middleware from the auth config.
func NewAuthMiddleware(cfg config.AuthConfig) *AuthMiddleware {
	admins := make(map[string]bool, len(cfg.AdminAccounts))
	for _, a := range cfg.AdminAccounts {
		admins[a] = true
	}
	return &AuthMiddleware{tokens: cfg.Tokens, admins: admins}
}

// Handler authenticates the request and stores the account id in context.
func (m *AuthMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortWithError(c, errors.New(errors.ErrCodeUnauthorized, "missing bearer token"))
			return
		}
		accountID, ok := m.tokens[strings.TrimPrefix(header, "Bearer ")]
		if !ok {
			abortWithError(c, errors.New(errors.ErrCodeUnauthorized, "unknown bearer token"))
			return
		}
		c.Set(ContextAccountID, accountID)
		c.Next()
	}
}

// RequireAdmin rejects accounts outside the admin list.  It must run after
// Handler.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.admins[AccountID(c)] {
			abortWithError(c, errors.New(errors.ErrCodeForbidden, "admin access required"))
			return
		}
		c.Next()
	}
}

// AccountID reads the authenticated account id set by Handler.
func AccountID(c *gin.Context) string {
	return c.GetString(ContextAccountID)
}

func abortWithError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	c.AbortWithStatusJSON(errors.HTTPStatus(code), gin.H{
		"code":    string(code),
		"message": err.Error(),
	})
}
