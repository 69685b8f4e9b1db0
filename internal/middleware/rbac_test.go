package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/vendorguard/vendorguard/internal/authz"
)

func rbacRequest(mw gin.HandlerFunc, actor *authz.Actor) *httptest.ResponseRecorder {
	router := gin.New()
	if actor != nil {
		router.Use(fakeActor(*actor))
	}
	router.Use(mw)
	router.GET("/resource", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resource", nil))
	return w
}

func TestRequirePermission_Allowed(t *testing.T) {
	actor := authz.Actor{ID: "u1", Role: authz.RoleAdmin, OrgID: "org-1"}
	w := rbacRequest(RequirePermission(authz.ActionCreateVendor), &actor)
	if w.Code != http.StatusOK {
		t.Errorf("admin create_vendor: expected 200, got %d", w.Code)
	}
}

func TestRequirePermission_Denied(t *testing.T) {
	actor := authz.Actor{ID: "u2", Role: authz.RoleVendor, OrgID: "org-1"}
	w := rbacRequest(RequirePermission(authz.ActionCreateVendor), &actor)
	if w.Code != http.StatusForbidden {
		t.Errorf("vendor create_vendor: expected 403, got %d", w.Code)
	}
}

func TestRequirePermission_NoActor(t *testing.T) {
	w := rbacRequest(RequirePermission(authz.ActionCreateVendor), nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without actor, got %d", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name  string
		role  authz.Role
		roles []authz.Role
		want  int
	}{
		{"reviewer allowed", authz.RoleReviewer, []authz.Role{authz.RoleReviewer, authz.RoleAdmin}, http.StatusOK},
		{"admin allowed", authz.RoleAdmin, []authz.Role{authz.RoleReviewer, authz.RoleAdmin}, http.StatusOK},
		{"vendor denied", authz.RoleVendor, []authz.Role{authz.RoleReviewer, authz.RoleAdmin}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := authz.Actor{ID: "u", Role: tt.role, OrgID: "org-1"}
			w := rbacRequest(RequireRole(tt.roles...), &actor)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestRequireOrg(t *testing.T) {
	withOrg := authz.Actor{ID: "u1", Role: authz.RoleAdmin, OrgID: "org-1"}
	if w := rbacRequest(RequireOrg(), &withOrg); w.Code != http.StatusOK {
		t.Errorf("actor with org: expected 200, got %d", w.Code)
	}

	noOrg := authz.Actor{ID: "u2", Role: authz.RoleAdmin}
	if w := rbacRequest(RequireOrg(), &noOrg); w.Code != http.StatusForbidden {
		t.Errorf("actor without org: expected 403, got %d", w.Code)
	}
}
