package rbac

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultGrantTableRoles(t *testing.T) {
	table := NewGrantTable(nil)
	require.Equal(t, []string{
		"Administrator",
		"Data Analyst",
		"Director",
		"IT Administrator",
		"Maintenance Technician",
		"Plant Manager",
		"Production Scheduler",
		"Shop Floor Operations",
		"Systems Manager",
		"Trainer",
	}, table.RoleNames())
	require.Len(t, table.GrantsFor("Production Scheduler"), 12)
	require.Len(t, table.GrantsFor("Administrator"), 54)
}

func TestGrantsForUnknownRoleIsEmpty(t *testing.T) {
	table := NewGrantTable(nil)
	grants := table.GrantsFor("Night Watch")
	require.NotNil(t, grants)
	require.Empty(t, grants)
	require.False(t, table.Has("Night Watch"))

	var nilTable *GrantTable
	require.Empty(t, nilTable.GrantsFor("Administrator"))
}

func TestDefaultGrantsHaveNoDuplicates(t *testing.T) {
	for role, grants := range DefaultGrants {
		seen := make(map[string]struct{}, len(grants))
		for _, grant := range grants {
			_, dup := seen[grant]
			require.False(t, dup, "%s lists %s twice", role, grant)
			seen[grant] = struct{}{}
		}
	}
}

func TestGrantsForReturnsCopy(t *testing.T) {
	table := NewGrantTable(nil)
	grants := table.GrantsFor("Director")
	grants[0] = "tampered-view"
	require.Equal(t, "business-goals-view", table.GrantsFor("Director")[0])
	require.Equal(t, "business-goals-view", DefaultGrants["Director"][0])
}

func TestOverridesReplaceAndExtend(t *testing.T) {
	table := NewGrantTable(map[string][]string{
		"Data Analyst":      {"analytics-view", "analytics-export", "analytics-view"},
		"Quality Inspector": {"quality-view"},
	})
	require.Equal(t, []string{"analytics-view", "analytics-export"}, table.GrantsFor("Data Analyst"))
	require.Equal(t, []string{"quality-view"}, table.GrantsFor("Quality Inspector"))
	require.Len(t, table.GrantsFor("Director"), 8)
	require.Len(t, DefaultGrants["Data Analyst"], 5)
}

func TestParseGrantFile(t *testing.T) {
	overrides, err := ParseGrantFile([]byte(`
roles:
  Quality Inspector:
    - quality-view
    - reports-view
`))
	require.NoError(t, err)
	require.Equal(t, map[string][]string{"Quality Inspector": {"quality-view", "reports-view"}}, overrides)

	empty, err := ParseGrantFile([]byte("{}"))
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestParseGrantFileRejectsEmptyGrant(t *testing.T) {
	_, err := ParseGrantFile([]byte("roles:\n  Auditor:\n    - \"\"\n"))
	require.Error(t, err)

	_, err = ParseGrantFile([]byte("roles: [not, a, map]"))
	require.Error(t, err)
}

func TestLoadGrantFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grants.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles:\n  Auditor:\n    - audit-view\n"), 0o600))

	overrides, err := LoadGrantFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"audit-view"}, overrides["Auditor"])

	_, err = LoadGrantFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
