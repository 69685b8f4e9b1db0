// Package middleware provides Gin HTTP middleware for authentication,
// authorization, rate limiting, security headers, and request metrics.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security -> RateLimit -> Auth -> RBAC -> Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before auth to block brute-force attacks before any DB work.
// Auth populates the resolved actor; RBAC reads from that context. Audit trail
// entries are written by the workflow operations themselves, not by middleware,
// so each entry carries action-specific metadata.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vendorguard/vendorguard/internal/auth"
	"github.com/vendorguard/vendorguard/internal/authz"
	"github.com/vendorguard/vendorguard/internal/db/models"
	"github.com/vendorguard/vendorguard/internal/db/repositories"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserKey  = "user"
	ContextActorKey = "actor"
)

// AuthMiddleware validates the bearer JWT and resolves the acting user. The
// user's role and org are loaded from the database on every request rather
// than trusted from token claims, so role changes take effect immediately
// without token reissue. The token's org claim must still match the user's
// current org: moving a user between orgs revokes their outstanding tokens.
func AuthMiddleware(userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Missing authorization header",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header must start with 'Bearer '",
			})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is empty",
			})
			return
		}

		claims, err := auth.ValidateJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		user, err := userRepo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load user",
			})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User not found",
			})
			return
		}

		orgID := ""
		if user.OrgID != nil {
			orgID = *user.OrgID
		}
		if claims.OrgID != orgID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid credentials",
			})
			return
		}

		c.Set(ContextUserKey, user)
		c.Set("user_id", user.ID)
		c.Set(ContextActorKey, actorFor(user))

		c.Next()
	}
}

// actorFor maps a user record to the authorization actor.
func actorFor(user *models.User) authz.Actor {
	actor := authz.Actor{
		ID:   user.ID,
		Role: authz.Role(user.Role),
	}
	if user.OrgID != nil {
		actor.OrgID = *user.OrgID
	}
	return actor
}

// ActorFrom retrieves the resolved actor from the request context. The second
// return is false when AuthMiddleware did not run or did not authenticate.
func ActorFrom(c *gin.Context) (authz.Actor, bool) {
	v, ok := c.Get(ContextActorKey)
	if !ok {
		return authz.Actor{}, false
	}
	actor, ok := v.(authz.Actor)
	return actor, ok
}
