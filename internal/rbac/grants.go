package rbac

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// SuperRole names the role whose grants cover every feature of the plant.
const SuperRole = "Administrator"

// DefaultGrants maps built-in role names to their grant strings.
var DefaultGrants = map[string][]string{
	"Director": {
		"business-goals-view", "business-goals-create", "business-goals-edit", "business-goals-delete",
		"analytics-view", "reports-view", "ai-assistant-view", "feedback-view",
	},
	"Plant Manager": {
		"plant-manager-view", "capacity-planning-view", "reports-view", "analytics-view",
		"schedule-view", "ai-assistant-view", "feedback-view",
	},
	"Production Scheduler": {
		"schedule-view", "schedule-create", "schedule-edit", "schedule-delete",
		"scheduling-optimizer-view", "shop-floor-view", "boards-view", "erp-import-view",
		"analytics-view", "reports-view", "ai-assistant-view", "feedback-view",
	},
	"IT Administrator": {
		"systems-management-view", "role-management-view", "user-role-assignments-view",
		"analytics-view", "reports-view", "ai-assistant-view", "feedback-view",
		"implementation-projects-view",
	},
	"Systems Manager": {
		"systems-management-view", "role-management-view", "user-role-assignments-view",
		"analytics-view", "reports-view", "ai-assistant-view", "feedback-view",
		"implementation-projects-view",
	},
	"Administrator": {
		"ai-assistant-view", "alerts-view", "algorithm-governance-view",
		"analytics-create", "analytics-edit", "analytics-view",
		"boards-view", "business-goals-view", "capacity-planning-view",
		"chat-view", "demand-planning-view", "demand-supply-alignment-view",
		"disruption-management-view", "erp-import-view", "feedback-view",
		"forklift-driver-view", "implementation-projects-view",
		"inbox-view", "industry-templates-view", "inventory-optimization-view",
		"labor-create", "labor-delete", "labor-edit", "labor-view",
		"labor-planning-create", "labor-planning-delete", "labor-planning-edit", "labor-planning-view",
		"maintenance-view", "maintenance-planning-view", "master-production-schedule-view",
		"notifications-send", "operator-dashboard-view", "optimization-view",
		"optimization-studio-view", "planning-scheduling-view", "plant-manager-view",
		"production-cockpit-view", "reports-create", "reports-view",
		"role-management-view", "schedule-create", "schedule-delete", "schedule-edit", "schedule-view",
		"scheduling-optimizer-view", "shop-floor-view", "systems-integration-view",
		"systems-management-view", "tenant-admin-view", "training-view",
		"user-management-view", "user-role-assignments-view", "visual-factory-view",
	},
	"Shop Floor Operations": {
		"shop-floor-view", "operator-dashboard-view", "reports-view",
		"ai-assistant-view", "feedback-view",
	},
	"Data Analyst": {
		"analytics-view", "reports-view", "schedule-view",
		"ai-assistant-view", "feedback-view",
	},
	"Trainer": {
		"training-view", "role-switching-permissions", "analytics-view", "reports-view",
		"schedule-view", "business-goals-view", "visual-factory-view",
		"ai-assistant-view", "feedback-view", "systems-management-view",
		"capacity-planning-view", "scheduling-optimizer-view", "shop-floor-view",
		"boards-view", "erp-import-view", "plant-manager-view", "operator-dashboard-view",
		"maintenance-planning-view", "role-management-view", "user-role-assignments-view",
		"business-goals-create", "business-goals-edit", "schedule-create", "schedule-edit",
		"implementation-projects-view",
	},
	"Maintenance Technician": {
		"maintenance-planning-view", "reports-view",
		"ai-assistant-view", "feedback-view",
	},
}

// GrantTable is an immutable lookup from role name to grant strings.
type GrantTable struct {
	grants map[string][]string
}

// NewGrantTable builds a table from DefaultGrants. Entries in overrides are
// consulted before the defaults, replacing a built-in role or adding a new one.
func NewGrantTable(overrides map[string][]string) *GrantTable {
	grants := make(map[string][]string, len(DefaultGrants)+len(overrides))
	for name, list := range DefaultGrants {
		grants[name] = append([]string(nil), list...)
	}
	for name, list := range overrides {
		grants[name] = uniqueGrants(list)
	}
	return &GrantTable{grants: grants}
}

func uniqueGrants(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, grant := range list {
		if _, ok := seen[grant]; ok {
			continue
		}
		seen[grant] = struct{}{}
		out = append(out, grant)
	}
	return out
}

// GrantsFor returns the configured grants for a role name. Unknown names
// resolve to an empty list.
func (t *GrantTable) GrantsFor(name string) []string {
	if t == nil {
		return []string{}
	}
	list, ok := t.grants[name]
	if !ok {
		return []string{}
	}
	return append([]string(nil), list...)
}

// Has reports whether the table configures the role.
func (t *GrantTable) Has(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.grants[name]
	return ok
}

// RoleNames lists configured role names sorted alphabetically.
func (t *GrantTable) RoleNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.grants))
	for name := range t.grants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// grantFile is the on-disk shape of a grant override file:
//
//	roles:
//	  Quality Inspector:
//	    - quality-view
//	    - reports-view
type grantFile struct {
	Roles map[string][]string `yaml:"roles"`
}

// LoadGrantFile reads role overrides from a YAML file.
func LoadGrantFile(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rbac: read grant file: %w", err)
	}
	return ParseGrantFile(data)
}

// ParseGrantFile decodes YAML role overrides.
func ParseGrantFile(data []byte) (map[string][]string, error) {
	var file grantFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("rbac: decode grant file: %w", err)
	}
	for name, list := range file.Roles {
		if name == "" {
			return nil, fmt.Errorf("rbac: grant file: empty role name")
		}
		for _, grant := range list {
			if grant == "" {
				return nil, fmt.Errorf("rbac: grant file: role %q has an empty grant", name)
			}
		}
	}
	if file.Roles == nil {
		return map[string][]string{}, nil
	}
	return file.Roles, nil
}
