package auth_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-access/internal/auth"
	"github.com/odyssey-erp/odyssey-access/internal/rbac"
)

func TestRequestPrincipalRequiresAuthenticatedResolver(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	_, ok := auth.RequestPrincipal(req)
	require.False(t, ok)

	res := auth.NewResolver(nil, nil, nil, auth.Options{})
	req = req.WithContext(auth.ContextWithResolver(req.Context(), res))
	_, ok = auth.RequestPrincipal(req)
	require.False(t, ok)

	res.SetUser(&auth.User{ID: 1, Roles: []rbac.Role{{Name: "Plant Manager"}}})
	principal, ok := auth.RequestPrincipal(req)
	require.True(t, ok)
	require.True(t, principal.HasPermission("capacity-planning", "view"))
	require.Same(t, res, auth.ResolverFromContext(req.Context()))
}

func TestActiveRole(t *testing.T) {
	id := int64(2)
	user := &auth.User{ActiveRoleID: &id, Roles: []rbac.Role{{ID: 1, Name: "Director"}, {ID: 2, Name: "Trainer"}}}
	require.Equal(t, "Trainer", user.ActiveRole().Name)

	current := rbac.Role{ID: 9, Name: "Data Analyst"}
	user.CurrentRole = &current
	require.Equal(t, "Data Analyst", user.ActiveRole().Name)

	var nobody *auth.User
	require.Nil(t, nobody.ActiveRole())
	require.Nil(t, (&auth.User{}).ActiveRole())
}
