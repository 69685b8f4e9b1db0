// auth.go implements the login endpoint and the authenticated identity probe.
// Tokens carry an identity snapshot; role and org are still re-read from the
// database on every authenticated request, and a token whose org claim no
// longer matches the user's org is rejected.
package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vendorguard/vendorguard/internal/auth"
	"github.com/vendorguard/vendorguard/internal/db/models"
	"github.com/vendorguard/vendorguard/internal/middleware"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies the password and issues a JWT.
// POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	// Uniform rejection for unknown email and wrong password so the endpoint
	// does not leak which accounts exist.
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	expiry := h.cfg.Auth.TokenExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	orgID := ""
	if user.OrgID != nil {
		orgID = *user.OrgID
	}
	token, err := auth.GenerateJWT(user.ID, user.Email, orgID, user.Role, expiry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(expiry.Seconds()),
		"user": gin.H{
			"id":     user.ID,
			"email":  user.Email,
			"name":   user.Name,
			"role":   user.Role,
			"org_id": user.OrgID,
		},
	})
}

// Me returns the authenticated user's identity as resolved by AuthMiddleware.
// GET /api/v1/auth/me
func (h *Handlers) Me(c *gin.Context) {
	v, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	user, ok := v.(*models.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     user.ID,
		"email":  user.Email,
		"name":   user.Name,
		"role":   user.Role,
		"org_id": user.OrgID,
	})
}
