package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/models"
	"github.com/yoockh/jobboard/internal/utils"
)

// RequireRole must run after JWTAuth. The role comes from the user row
// JWTAuth loaded for this request, not from token claims.
func RequireRole(allowed ...string) gin.HandlerFunc {
	allow := map[string]struct{}{}
	for _, a := range allowed {
		allow[a] = struct{}{}
	}

	return func(c *gin.Context) {
		v, _ := c.Get("user")
		u, ok := v.(*models.User)
		if !ok || u == nil {
			abort(c, utils.E(utils.CodeUnauthorized, "RequireRole", "unauthorized", nil))
			return
		}
		if _, ok := allow[u.Role()]; !ok {
			abort(c, utils.E(utils.CodeForbidden, "RequireRole", "requires role: "+strings.Join(allowed, " or "), nil))
			return
		}
		c.Next()
	}
}

func RequireRecruiter() gin.HandlerFunc { return RequireRole(models.RoleRecruiter) }

func RequireJobSeeker() gin.HandlerFunc { return RequireRole(models.RoleJobSeeker) }
