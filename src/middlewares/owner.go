package middlewares

import (
	"etix/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CanManageEvents is the authorization rule for the owner surface. It is
// an explicit capability check on the authenticated identity, not a view
// concern.
func CanManageEvents(role string) bool {
	return role == string(types.ROLE_OWNER)
}

// OwnerRequired guards handlers that create or delete events and seat
// classes. Must run after AuthMiddleware.
func OwnerRequired(ctx *gin.Context) {
	role := ctx.GetString("role")
	if !CanManageEvents(role) {
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not enough permissions to perform this action"})
		return
	}
}
