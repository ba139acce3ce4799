package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-access/internal/rbac"
)

func TestGrantsCommandListsRoles(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	code := GrantsCommand(GrantsOptions{Stdout: stdout, Stderr: stderr})
	require.Equal(t, 0, code)
	require.Empty(t, stderr.String())
	require.Contains(t, stdout.String(), "Production Scheduler (12)")
	require.Contains(t, stdout.String(), " - schedule-create\n")
}

func TestGrantsCommandRoleJSON(t *testing.T) {
	stdout := new(bytes.Buffer)
	code := GrantsCommand(GrantsOptions{Role: "Maintenance Technician", JSONOutput: true, Stdout: stdout, Stderr: new(bytes.Buffer)})
	require.Equal(t, 0, code)

	var role rbac.Role
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &role))
	require.Equal(t, "Maintenance Technician", role.Name)
	require.Len(t, role.Permissions, 4)
	require.Equal(t, "maintenance-planning", role.Permissions[0].Feature)
	require.Equal(t, int64(1), role.Permissions[0].ID)
}

func TestGrantsCommandUnknownRole(t *testing.T) {
	stderr := new(bytes.Buffer)
	code := GrantsCommand(GrantsOptions{Role: "Janitor", Stdout: new(bytes.Buffer), Stderr: stderr})
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "unknown role")
}

func TestCheckCommand(t *testing.T) {
	stdout := new(bytes.Buffer)
	code := CheckCommand(CheckOptions{Role: "Production Scheduler", Feature: "schedule", Action: "create", Stdout: stdout})
	require.Equal(t, 0, code)
	require.Equal(t, "Production Scheduler: schedule-create granted\n", stdout.String())

	stdout.Reset()
	code = CheckCommand(CheckOptions{Role: "Production Scheduler", Feature: "user-management", Action: "view", JSONOutput: true, Stdout: stdout})
	require.Equal(t, ExitDenied, code)

	var summary CheckSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	require.False(t, summary.Granted)
}

func TestCheckCommandRequiresArguments(t *testing.T) {
	stderr := new(bytes.Buffer)
	code := CheckCommand(CheckOptions{Role: "Trainer", Stdout: new(bytes.Buffer), Stderr: stderr})
	require.Equal(t, 1, code)
	require.True(t, strings.HasPrefix(stderr.String(), "check:"))
}

func TestRootCommandUsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grants.yaml")
	require.NoError(t, writeFile(path, "roles:\n  Quality Inspector:\n    - quality-view\n"))

	stdout := new(bytes.Buffer)
	root := NewRootCommand(RootOptions{Stdout: stdout, Stderr: new(bytes.Buffer)})
	root.SetArgs([]string{"check", "--grants-file", path, "Quality Inspector", "quality", "view"})
	require.NoError(t, root.Execute())
	require.Contains(t, stdout.String(), "granted")

	root = NewRootCommand(RootOptions{Stdout: new(bytes.Buffer), Stderr: new(bytes.Buffer)})
	root.SetArgs([]string{"check", "--grants-file", path, "Quality Inspector", "schedule", "view"})
	err := root.Execute()
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, ExitDenied, exitErr.Code)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
