package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandGrantSplitsOnLastHyphen(t *testing.T) {
	perm := ExpandGrant("business-goals-view", 3)
	require.Equal(t, Permission{
		ID:          3,
		Name:        "business-goals-view",
		Feature:     "business-goals",
		Action:      "view",
		Description: "view access to business-goals",
	}, perm)
}

func TestExpandGrantEdgeCases(t *testing.T) {
	cases := []struct {
		grant   string
		feature string
		action  string
	}{
		{grant: "", feature: "", action: ActionView},
		{grant: "dashboard", feature: "", action: "dashboard"},
		{grant: "notifications-send", feature: "notifications", action: "send"},
		{grant: "role-switching-permissions", feature: "role-switching", action: "permissions"},
		{grant: "reports-", feature: "reports", action: ""},
		{grant: "-view", feature: "", action: "view"},
	}
	for _, tc := range cases {
		perm := ExpandGrant(tc.grant, 1)
		require.Equal(t, tc.grant, perm.Name, tc.grant)
		require.Equal(t, tc.feature, perm.Feature, tc.grant)
		require.Equal(t, tc.action, perm.Action, tc.grant)
		require.Equal(t, tc.action+" access to "+tc.feature, perm.Description, tc.grant)
	}
}

func TestGrantRoundTripAcrossTable(t *testing.T) {
	for role, grants := range DefaultGrants {
		for i, grant := range grants {
			perm := ExpandGrant(grant, i+1)
			require.Equal(t, grant, perm.Name, role)
			require.Equal(t, grant, perm.Key(), role)
			require.Equal(t, grant, JoinGrant(SplitGrant(grant)), role)
		}
	}
}

func TestKnownAction(t *testing.T) {
	require.True(t, KnownAction("view"))
	require.True(t, KnownAction(ActionSend))
	require.False(t, KnownAction("permissions"))
	require.False(t, KnownAction("View"))
}
