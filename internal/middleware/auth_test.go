package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"lms_backoffice/internal/model"

	"github.com/gin-gonic/gin"
)

func permCtx(t *testing.T, actor *model.AuthContext) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/roles", nil)
	if actor != nil {
		c.Set("authContext", actor)
	}
	return c, w
}

func TestRequirePermissionAllowsHolder(t *testing.T) {
	actor := &model.AuthContext{
		UserID:      1,
		RoleName:    "admin",
		Permissions: map[string]struct{}{"role:read": {}},
	}
	c, _ := permCtx(t, actor)

	RequirePermission("role:read")(c)

	if c.IsAborted() {
		t.Fatal("holder of the permission must pass through")
	}
}

func TestRequirePermissionBlocksNonHolder(t *testing.T) {
	actor := &model.AuthContext{
		UserID:      2,
		RoleName:    "student",
		Permissions: map[string]struct{}{"course:read": {}},
	}
	c, w := permCtx(t, actor)

	RequirePermission("role:read")(c)

	if !c.IsAborted() {
		t.Fatal("missing permission must abort the request")
	}
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequirePermissionRejectsMissingContext(t *testing.T) {
	c, w := permCtx(t, nil)

	RequirePermission("role:read")(c)

	if !c.IsAborted() {
		t.Fatal("request without auth context must abort")
	}
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
