package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/service-booking/role"
	"github.com/yeremiapane/service-booking/utils"
)

// RequireCapability rejects callers whose role lacks the action. It must run
// after AuthMiddleware.
func RequireCapability(action role.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := CurrentRole(c)
		if r == "" {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		if !r.Can(action) {
			utils.RespondError(c, http.StatusForbidden, fmt.Errorf("you do not have permission"))
			c.Abort()
			return
		}

		c.Next()
	}
}
