// Package middleware (rbac.go) implements role-based authorization middleware.
//
// Permissions are checked at request time against the static role-to-permission
// table rather than being embedded in the JWT. When a user's role changes, the
// change takes effect on their next request without token reissue.
//
// This check is the coarse first gate; the workflow layer re-authorizes with
// the full predicate list (tenancy, action-specific role restrictions), so a
// request passing RBAC here can still be denied downstream.

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendorguard/vendorguard/internal/authz"
)

// RequirePermission rejects requests whose actor's role lacks the action in
// the permission table.
func RequirePermission(action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		if !authz.Allowed(actor.Role, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}

		c.Next()
	}
}

// RequireRole rejects requests whose actor's role is not one of the given roles.
func RequireRole(roles ...authz.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
		})
	}
}

// RequireOrg rejects requests whose actor carries no organization context.
// Workflow entities are all org-scoped, so an actor without an org cannot
// address any of them.
func RequireOrg() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		if actor.OrgID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "User has no organization",
			})
			return
		}

		c.Next()
	}
}
