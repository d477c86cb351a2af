package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fitcore/fitcore/internal/shared"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRoleUnauthenticated(t *testing.T) {
	mw := Middleware{}
	handler := mw.RequireRole(shared.RoleAdmin)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleForbidden(t *testing.T) {
	mw := Middleware{}
	handler := mw.RequireRole(shared.RoleSuperAdmin)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := shared.ContextWithIdentity(req.Context(), &shared.Identity{UserID: 7, Role: shared.RoleStaff})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRoleAllowsAnyListed(t *testing.T) {
	mw := Middleware{}
	handler := mw.RequireRole(shared.RoleAdmin, shared.RoleManager)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := shared.ContextWithIdentity(req.Context(), &shared.Identity{UserID: 7, Role: shared.RoleManager})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(ctx))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleNoRolesPassesThrough(t *testing.T) {
	mw := Middleware{}
	handler := mw.RequireRole()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
