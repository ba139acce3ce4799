package rbac

import "hash/fnv"

// StableRoleID derives a deterministic, non-negative id from a role name.
func StableRoleID(name string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum32())
}

// ExpandRole builds the role for name from the table's grants.
func (t *GrantTable) ExpandRole(name string) Role {
	grants := t.GrantsFor(name)
	perms := make([]Permission, 0, len(grants))
	for i, grant := range grants {
		perms = append(perms, ExpandGrant(grant, i+1))
	}
	return Role{
		ID:          StableRoleID(name),
		Name:        name,
		Description: name + " role with assigned permissions",
		Permissions: perms,
	}
}

// NormalizeRole repairs a role that arrived without expanded permissions.
// Roles already carrying permissions are returned verbatim.
func (t *GrantTable) NormalizeRole(role Role) Role {
	if len(role.Permissions) > 0 {
		return role
	}
	return t.ExpandRole(role.Name)
}

// NormalizeRoles applies NormalizeRole to every role, preserving order.
func (t *GrantTable) NormalizeRoles(roles []Role) []Role {
	if roles == nil {
		return nil
	}
	out := make([]Role, len(roles))
	for i, role := range roles {
		out[i] = t.NormalizeRole(role)
	}
	return out
}
