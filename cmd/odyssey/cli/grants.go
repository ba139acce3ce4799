package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/odyssey-erp/odyssey-access/internal/rbac"
)

// GrantsOptions defines available flags for the grants command.
type GrantsOptions struct {
	Table      *rbac.GrantTable
	Role       string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// CheckOptions defines available flags for the check command.
type CheckOptions struct {
	Table      *rbac.GrantTable
	Role       string
	Feature    string
	Action     string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// CheckSummary describes the JSON response for check.
type CheckSummary struct {
	Role    string `json:"role"`
	Feature string `json:"feature"`
	Action  string `json:"action"`
	Granted bool   `json:"granted"`
}

// ExitDenied is returned by check when the role lacks the permission.
const ExitDenied = 10

// GrantsCommand prints the grant table, or one normalized role when Role is set.
func GrantsCommand(opts GrantsOptions) int {
	stdout, stderr := streams(opts.Stdout, opts.Stderr)
	table := opts.Table
	if table == nil {
		table = rbac.NewGrantTable(nil)
	}

	role := strings.TrimSpace(opts.Role)
	if role == "" {
		if opts.JSONOutput {
			out := make(map[string][]string, len(table.RoleNames()))
			for _, name := range table.RoleNames() {
				out[name] = table.GrantsFor(name)
			}
			return encode(stdout, stderr, "grants", out)
		}
		for _, name := range table.RoleNames() {
			_, _ = fmt.Fprintf(stdout, "%s (%d)\n", name, len(table.GrantsFor(name)))
			for _, grant := range table.GrantsFor(name) {
				_, _ = fmt.Fprintf(stdout, " - %s\n", grant)
			}
		}
		return 0
	}

	if !table.Has(role) {
		_, _ = fmt.Fprintf(stderr, "grants: unknown role %q\n", role)
		return 1
	}
	expanded := table.ExpandRole(role)
	if opts.JSONOutput {
		return encode(stdout, stderr, "grants", expanded)
	}
	_, _ = fmt.Fprintf(stdout, "%s (id %d)\n", expanded.Name, expanded.ID)
	for _, perm := range expanded.Permissions {
		_, _ = fmt.Fprintf(stdout, "%3d  %-40s %s\n", perm.ID, perm.Key(), perm.Description)
	}
	return 0
}

// CheckCommand answers whether a role grants feature/action. It exits with
// ExitDenied when the permission is missing.
func CheckCommand(opts CheckOptions) int {
	stdout, stderr := streams(opts.Stdout, opts.Stderr)
	table := opts.Table
	if table == nil {
		table = rbac.NewGrantTable(nil)
	}
	if opts.Role == "" || opts.Feature == "" || opts.Action == "" {
		_, _ = fmt.Fprintln(stderr, "check: role, feature and action are required")
		return 1
	}

	role := table.NormalizeRole(rbac.Role{Name: opts.Role})
	summary := CheckSummary{
		Role:    opts.Role,
		Feature: opts.Feature,
		Action:  opts.Action,
		Granted: role.Grants(opts.Feature, opts.Action),
	}
	if opts.JSONOutput {
		if code := encode(stdout, stderr, "check", summary); code != 0 {
			return code
		}
	} else {
		verdict := "denied"
		if summary.Granted {
			verdict = "granted"
		}
		_, _ = fmt.Fprintf(stdout, "%s: %s-%s %s\n", summary.Role, summary.Feature, summary.Action, verdict)
	}
	if !summary.Granted {
		return ExitDenied
	}
	return 0
}

func streams(stdout, stderr io.Writer) (io.Writer, io.Writer) {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return stdout, stderr
}

func encode(stdout, stderr io.Writer, cmd string, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_, _ = fmt.Fprintf(stderr, "%s: encode json: %v\n", cmd, err)
		return 1
	}
	return 0
}
