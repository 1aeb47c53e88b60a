package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/sheetlens/internal/auth"
	"github.com/yoockh/sheetlens/internal/utils"
)

func abort(c *gin.Context, err error) {
	resp := utils.NewErrorResponse(err)
	if resp.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(resp.Status, resp)
}

// JWTAuth resolves the caller identity from the bearer token. Browsers cannot
// set headers on websocket upgrades, so the access_token query parameter is
// accepted as a fallback.
func JWTAuth(v *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			raw = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
		if raw == "" {
			raw = strings.TrimSpace(c.Query("access_token"))
		}
		if raw == "" {
			abort(c, utils.E(utils.CodeUnauthorized, "JWTAuth", "Authentication required", nil))
			return
		}

		id, err := v.Verify(raw)
		switch {
		case errors.Is(err, auth.ErrMissingSecret):
			abort(c, utils.E(utils.CodeInternal, "JWTAuth", "authentication is not configured", err))
			return
		case err != nil:
			abort(c, utils.E(utils.CodeUnauthorized, "JWTAuth", err.Error(), err))
			return
		}

		c.Set(auth.IdentityKey, id)
		c.Set("user_id", id.ID)
		c.Set("role", string(id.Role))
		c.Next()
	}
}
