package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/sheetlens/internal/auth"
	"github.com/yoockh/sheetlens/internal/models"
	"github.com/yoockh/sheetlens/internal/utils"
)

func writeError(c *gin.Context, err error) {
	resp := utils.NewErrorResponse(err)
	if resp.Status >= http.StatusInternalServerError {
		// detail goes to the request log only
		_ = c.Error(err)
	}
	c.JSON(resp.Status, resp)
}

// bindJSON treats an empty body as an empty object so field checks in the
// service produce the specific message.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func badRequest(c *gin.Context, op string, err error) {
	writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
}

func requireIdentity(c *gin.Context) (*models.Identity, bool) {
	if v, ok := c.Get(auth.IdentityKey); ok {
		if id, ok := v.(*models.Identity); ok && id != nil && id.ID != "" {
			return id, true
		}
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "Authentication required", nil))
	return nil, false
}
