package rbac

// Permission represents an atomic capability expressed as a feature/action pair.
type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Feature     string `json:"feature"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
}

// Key renders the permission in grant form, "<feature>-<action>".
func (p Permission) Key() string {
	return p.Feature + "-" + p.Action
}

// Role represents a named bundle of permissions.
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions"`
}

// Grants reports whether the role carries a permission for feature and action.
// Matching is exact and case-sensitive.
func (r Role) Grants(feature, action string) bool {
	for _, p := range r.Permissions {
		if p.Feature == feature && p.Action == action {
			return true
		}
	}
	return false
}

// Principal describes the authenticated actor as seen by authorization checks.
type Principal interface {
	HasPermission(feature, action string) bool
	HasRole(name string) bool
}
