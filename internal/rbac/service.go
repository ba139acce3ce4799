package rbac

import (
	"context"
	"errors"
	"sort"
	"strings"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("rbac: not found")

// Service exposes the role catalog backed by a grant table.
type Service struct {
	table *GrantTable
}

// NewService constructs a Service over the provided table.
func NewService(table *GrantTable) *Service {
	if table == nil {
		table = NewGrantTable(nil)
	}
	return &Service{table: table}
}

// Table returns the underlying grant table.
func (s *Service) Table() *GrantTable {
	return s.table
}

// ListRoles returns all configured roles, expanded, ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	names := s.table.RoleNames()
	roles := make([]Role, 0, len(names))
	for _, name := range names {
		roles = append(roles, s.table.ExpandRole(name))
	}
	return roles, nil
}

// GetRole fetches a configured role by name.
func (s *Service) GetRole(ctx context.Context, name string) (Role, error) {
	name = strings.TrimSpace(name)
	if !s.table.Has(name) {
		return Role{}, ErrNotFound
	}
	return s.table.ExpandRole(name), nil
}

// ListPermissions returns every distinct permission granted by any role,
// ordered by name. Ids follow that order.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	unique := make(map[string]struct{})
	for _, name := range s.table.RoleNames() {
		for _, grant := range s.table.GrantsFor(name) {
			unique[grant] = struct{}{}
		}
	}
	grants := make([]string, 0, len(unique))
	for grant := range unique {
		grants = append(grants, grant)
	}
	sort.Strings(grants)
	perms := make([]Permission, 0, len(grants))
	for i, grant := range grants {
		perms = append(perms, ExpandGrant(grant, i+1))
	}
	return perms, nil
}

// RolesGranting lists the names of roles that grant feature/action.
func (s *Service) RolesGranting(ctx context.Context, feature, action string) ([]string, error) {
	var names []string
	for _, name := range s.table.RoleNames() {
		if s.table.ExpandRole(name).Grants(feature, action) {
			names = append(names, name)
		}
	}
	return names, nil
}
