package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-learn/internal/response"
	"github.com/stemsi/exstem-learn/internal/service"
)

// SessionChecker confirms that a token is the learner's live session.
type SessionChecker interface {
	ValidateLearnerSession(ctx context.Context, learnerID int, jti string) error
}

// RequireActiveSession rejects tokens replaced by a newer login. Must run
// after RequireLearnerJWT or RequireLearnerWSAuth.
func RequireActiveSession(sc SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if err := sc.ValidateLearnerSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			if errors.Is(err, service.ErrSessionInvalidated) {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
				return
			}
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		c.Next()
	}
}
