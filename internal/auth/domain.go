package auth

import "github.com/odyssey-erp/odyssey-access/internal/rbac"

// User represents the authenticated principal as returned by the session endpoint.
type User struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	IsActive     bool        `json:"isActive"`
	ActiveRoleID *int64      `json:"activeRoleId,omitempty"`
	CurrentRole  *rbac.Role  `json:"currentRole,omitempty"`
	Roles        []rbac.Role `json:"roles"`
}

// ActiveRole returns the role the user is currently acting as: CurrentRole
// when present, otherwise the role whose id matches ActiveRoleID.
func (u *User) ActiveRole() *rbac.Role {
	if u == nil {
		return nil
	}
	if u.CurrentRole != nil {
		return u.CurrentRole
	}
	if u.ActiveRoleID == nil {
		return nil
	}
	for i := range u.Roles {
		if u.Roles[i].ID == *u.ActiveRoleID {
			return &u.Roles[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.ActiveRoleID != nil {
		id := *u.ActiveRoleID
		out.ActiveRoleID = &id
	}
	if u.CurrentRole != nil {
		role := cloneRole(*u.CurrentRole)
		out.CurrentRole = &role
	}
	if u.Roles != nil {
		out.Roles = make([]rbac.Role, len(u.Roles))
		for i, role := range u.Roles {
			out.Roles[i] = cloneRole(role)
		}
	}
	return &out
}

func cloneRole(role rbac.Role) rbac.Role {
	if role.Permissions != nil {
		role.Permissions = append([]rbac.Permission(nil), role.Permissions...)
	}
	return role
}

// Credentials carries a username/password login attempt.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token string `json:"token,omitempty"`
	User  *User  `json:"user"`
}
