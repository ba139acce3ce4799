package rbac

// HasPermission reports whether any role grants feature/action.
func HasPermission(roles []Role, feature, action string) bool {
	for _, role := range roles {
		if role.Grants(feature, action) {
			return true
		}
	}
	return false
}

// HasRole reports whether roles contains a role named exactly name.
func HasRole(roles []Role, name string) bool {
	for _, role := range roles {
		if role.Name == name {
			return true
		}
	}
	return false
}

// PermissionKeys flattens every permission of every role into grant form,
// in role order then permission order. Permissions shared by several roles
// appear once per role.
func PermissionKeys(roles []Role) []string {
	keys := make([]string, 0)
	for _, role := range roles {
		for _, p := range role.Permissions {
			keys = append(keys, p.Key())
		}
	}
	return keys
}

// UniquePermissionKeys is PermissionKeys without repeats, keeping first-seen order.
func UniquePermissionKeys(roles []Role) []string {
	seen := make(map[string]struct{})
	keys := make([]string, 0)
	for _, role := range roles {
		for _, p := range role.Permissions {
			key := p.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys
}

// RoleSet is a Principal over a fixed list of roles.
type RoleSet []Role

// HasPermission implements Principal.
func (s RoleSet) HasPermission(feature, action string) bool {
	return HasPermission(s, feature, action)
}

// HasRole implements Principal.
func (s RoleSet) HasRole(name string) bool {
	return HasRole(s, name)
}
