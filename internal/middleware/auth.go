// internal/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/ledrent/ledrent-backend/internal/i18n"
	"github.com/ledrent/ledrent-backend/internal/models"
	"github.com/ledrent/ledrent-backend/internal/services"
	"github.com/ledrent/ledrent-backend/internal/utils"
)

// UserResolver looks up the account behind a token subject.
type UserResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// AuthRequired validates the bearer token. With a resolver, the stored account
// must exist and be active, and its role replaces the token's role claim.
func AuthRequired(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			key := i18n.KeyAuthInvalidToken
			var validationErr *jwt.ValidationError
			if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
				key = i18n.KeyAuthTokenExpired
			}
			utils.UnauthorizedResponse(c, i18n.T(lang, key))
			c.Abort()
			return
		}

		role := claims.Role
		if resolver != nil {
			user, err := resolver.Resolve(c.Request.Context(), uuid.MustParse(claims.UserID))
			if err != nil {
				var forbidden *services.ForbiddenError
				if errors.As(err, &forbidden) {
					utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyUserSuspended))
				} else {
					utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyUserNotFound))
				}
				c.Abort()
				return
			}
			role = string(user.Role)
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_role", role)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous or invalid requests through unidentified.
func OptionalAuth(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			c.Next()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			c.Next()
			return
		}

		role := claims.Role
		if resolver != nil {
			user, err := resolver.Resolve(c.Request.Context(), uuid.MustParse(claims.UserID))
			if err != nil {
				c.Next()
				return
			}
			role = string(user.Role)
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_role", role)
		c.Next()
	}
}

// AdminRequired admits admins only.
func AdminRequired() gin.HandlerFunc {
	return requireRole(i18n.KeyAdminAccessDenied, models.UserRoleAdmin)
}

// StaffRequired admits staff and admins.
func StaffRequired() gin.HandlerFunc {
	return requireRole(i18n.KeyStaffAccessDenied, models.UserRoleStaff, models.UserRoleAdmin)
}

func requireRole(deniedKey string, roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := utils.GetUserRoleFromContext(c)
		for _, allowed := range roles {
			if role == string(allowed) {
				c.Next()
				return
			}
		}

		utils.ForbiddenResponse(c, i18n.T(utils.GetLangFromContext(c), deniedKey))
		c.Abort()
	}
}
