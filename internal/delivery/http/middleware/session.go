package middleware

import (
	"context"
	"strings"

	"expert-backend/internal/domain"
	"expert-backend/pkg/logger"
	"expert-backend/pkg/security"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the cookie the auth provider's frontend SDK writes.
const SessionCookie = "__session"

// TokenVerifier validates a raw session token and returns its subject.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (string, error)
}

// SessionMiddleware extracts the subject id from the request's session token.
// It never rejects a request: a missing or invalid token leaves the subject
// unset and the handlers decide how to answer.
func SessionMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := sessionToken(c)
		if raw == "" || verifier == nil {
			c.Next()
			return
		}

		subjectID, err := verifier.Verify(c.Request.Context(), raw)
		if err != nil {
			logger.Log.Debug("Session token rejected", "path", c.FullPath(), "error", err)
			security.DefaultLogger().LogTokenRejected(
				c.Request.Context(),
				c.ClientIP(),
				c.Request.UserAgent(),
				c.GetString(string(domain.KeyRequestID)),
				err.Error(),
			)
			c.Next()
			return
		}

		c.Set(string(domain.KeySubjectID), subjectID)
		c.Next()
	}
}

// SubjectID returns the authenticated subject, or "" for anonymous requests.
func SubjectID(c *gin.Context) string {
	return c.GetString(string(domain.KeySubjectID))
}

// sessionToken prefers the Authorization header over the session cookie.
func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}
