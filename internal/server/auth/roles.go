package auth

import (
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// RequireRole is the capability check run at the start of every privileged
// operation. Nil claims never pass.
func RequireRole(claims *Claims, role models.Role) error {
	if claims == nil || !claims.HasRole(role) {
		return common.ErrForbidden
	}
	return nil
}
