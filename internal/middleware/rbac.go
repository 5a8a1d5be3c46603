package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
	"github.com/noah-isme/skillmatrix-api/pkg/response"
)

// RequireRoles rejects requests whose token role is not in roles. Services
// repeat the check against the actor, so this only short-circuits early.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	names := make([]string, len(roles))
	for i, r := range roles {
		allowed[r] = struct{}{}
		names[i] = string(r)
	}
	denied := "requires role " + strings.Join(names, " or ")

	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, denied))
			c.Abort()
			return
		}
		c.Next()
	}
}
