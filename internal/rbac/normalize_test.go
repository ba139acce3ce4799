package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeRoleExpandsEmptyRole(t *testing.T) {
	table := NewGrantTable(nil)
	role := table.NormalizeRole(Role{Name: "Production Scheduler"})

	require.Equal(t, "Production Scheduler", role.Name)
	require.Equal(t, StableRoleID("Production Scheduler"), role.ID)
	require.Equal(t, "Production Scheduler role with assigned permissions", role.Description)

	keys := make([]string, 0, len(role.Permissions))
	for i, perm := range role.Permissions {
		require.Equal(t, int64(i+1), perm.ID)
		keys = append(keys, perm.Key())
	}
	require.Equal(t, []string{
		"schedule-view", "schedule-create", "schedule-edit", "schedule-delete",
		"scheduling-optimizer-view", "shop-floor-view", "boards-view", "erp-import-view",
		"analytics-view", "reports-view", "ai-assistant-view", "feedback-view",
	}, keys)

	principal := RoleSet{role}
	require.True(t, principal.HasPermission("schedule", "create"))
	require.False(t, principal.HasPermission("user-management", "view"))
}

func TestNormalizeRoleIsIdempotent(t *testing.T) {
	table := NewGrantTable(nil)
	for _, name := range table.RoleNames() {
		first := table.NormalizeRole(Role{Name: name, Permissions: []Permission{}})
		second := table.NormalizeRole(Role{Name: name})
		require.Equal(t, first, second, name)
		require.Equal(t, first, table.NormalizeRole(first), name)
	}
}

func TestNormalizeRolePassesThroughExpandedRoles(t *testing.T) {
	table := NewGrantTable(nil)
	server := Role{
		ID:          42,
		Name:        "Administrator",
		Description: "from server",
		Permissions: []Permission{{ID: 7, Name: "inbox-view", Feature: "inbox", Action: "view"}},
	}
	require.Equal(t, server, table.NormalizeRole(server))

	unknown := Role{ID: 9, Name: "Contractor", Permissions: []Permission{{ID: 1, Feature: "gate", Action: "open"}}}
	require.Equal(t, unknown, table.NormalizeRole(unknown))
}

func TestNormalizeUnknownRoleHasNoPermissions(t *testing.T) {
	table := NewGrantTable(nil)
	role := table.NormalizeRole(Role{ID: 5, Name: "Visitor"})
	require.Equal(t, "Visitor", role.Name)
	require.Equal(t, StableRoleID("Visitor"), role.ID)
	require.NotNil(t, role.Permissions)
	require.Empty(t, role.Permissions)
}

func TestNormalizeRolesPreservesOrder(t *testing.T) {
	table := NewGrantTable(nil)
	roles := table.NormalizeRoles([]Role{{Name: "Trainer"}, {Name: "Data Analyst"}})
	require.Len(t, roles, 2)
	require.Equal(t, "Trainer", roles[0].Name)
	require.Len(t, roles[0].Permissions, 25)
	require.Equal(t, "Data Analyst", roles[1].Name)
	require.Nil(t, table.NormalizeRoles(nil))
}

func TestStableRoleIDIsDeterministic(t *testing.T) {
	require.Equal(t, StableRoleID("Director"), StableRoleID("Director"))
	require.NotEqual(t, StableRoleID("Director"), StableRoleID("Trainer"))
	require.GreaterOrEqual(t, StableRoleID(""), int64(0))
}
