package rbac

import "strings"

// Actions observed across the plant operations catalog. Grants may use other
// verbs; these are only the ones the UI knows how to label.
const (
	ActionView    = "view"
	ActionCreate  = "create"
	ActionEdit    = "edit"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionExecute = "execute"
	ActionExport  = "export"
	ActionSend    = "send"
)

var knownActions = map[string]struct{}{
	ActionView:    {},
	ActionCreate:  {},
	ActionEdit:    {},
	ActionUpdate:  {},
	ActionDelete:  {},
	ActionExecute: {},
	ActionExport:  {},
	ActionSend:    {},
}

// KnownAction reports whether action is one of the enumerated verbs.
func KnownAction(action string) bool {
	_, ok := knownActions[action]
	return ok
}

// ExpandGrant turns a compact "<feature>-<action>" grant into a Permission.
// The last hyphen-delimited segment is the action and the remainder is the
// feature, so "business-goals-view" yields feature "business-goals". A grant
// without a hyphen has an empty feature. Only the empty grant falls back to
// the "view" action. ordinal becomes the permission id.
func ExpandGrant(grant string, ordinal int) Permission {
	feature, action := SplitGrant(grant)
	return Permission{
		ID:          int64(ordinal),
		Name:        grant,
		Feature:     feature,
		Action:      action,
		Description: describe(feature, action),
	}
}

// SplitGrant separates a grant string into feature and action.
func SplitGrant(grant string) (feature, action string) {
	idx := strings.LastIndex(grant, "-")
	if idx < 0 {
		if grant == "" {
			return "", ActionView
		}
		return "", grant
	}
	return grant[:idx], grant[idx+1:]
}

// JoinGrant is the inverse of SplitGrant.
func JoinGrant(feature, action string) string {
	return feature + "-" + action
}

func describe(feature, action string) string {
	return action + " access to " + feature
}
