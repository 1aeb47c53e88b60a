package auth

import (
	"github.com/yoockh/sheetlens/internal/models"
	"github.com/yoockh/sheetlens/internal/utils"
)

// IdentityKey is the gin context key the auth middleware stores *models.Identity under.
const IdentityKey = "identity"

// Authenticated fails with Unauthorized when there is no caller.
func Authenticated(caller *models.Identity) error {
	if caller == nil || caller.ID == "" {
		return utils.E(utils.CodeUnauthorized, "auth.Authenticated", "Authentication required", nil)
	}
	return nil
}

// Authorize is the single ownership rule: the caller may act on userID
// when it is the caller's own id or the caller is an admin.
func Authorize(caller *models.Identity, userID string) error {
	if err := Authenticated(caller); err != nil {
		return err
	}
	if caller.ID == userID || caller.IsAdmin() {
		return nil
	}
	return utils.E(utils.CodeForbidden, "auth.Authorize", "Access denied", nil)
}
