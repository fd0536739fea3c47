package relationship_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tradeweave/tradeweave-backend/internal/modules/relationship"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    relationship.Status
		to      relationship.Status
		allowed bool
	}{
		{relationship.StatusPending, relationship.StatusActive, true},
		{relationship.StatusPending, relationship.StatusRejected, true},
		{relationship.StatusPending, relationship.StatusBlocked, true},
		{relationship.StatusPending, relationship.StatusArchived, true},
		{relationship.StatusActive, relationship.StatusBlocked, true},
		{relationship.StatusActive, relationship.StatusArchived, true},
		{relationship.StatusActive, relationship.StatusPending, false},
		{relationship.StatusActive, relationship.StatusRejected, false},
		{relationship.StatusBlocked, relationship.StatusActive, true},
		{relationship.StatusBlocked, relationship.StatusArchived, true},
		{relationship.StatusBlocked, relationship.StatusPending, false},
		{relationship.StatusRejected, relationship.StatusActive, false},
		{relationship.StatusRejected, relationship.StatusArchived, false},
		{relationship.StatusArchived, relationship.StatusActive, false},
		{relationship.StatusArchived, relationship.StatusBlocked, false},
	}
	for _, c := range cases {
		require.Equal(t, c.allowed, relationship.CanTransition(c.from, c.to),
			"%s -> %s", c.from, c.to)
	}
}

func TestCanTransitionSelfLoopDenied(t *testing.T) {
	for status := range map[relationship.Status]struct{}{
		relationship.StatusPending:  {},
		relationship.StatusActive:   {},
		relationship.StatusBlocked:  {},
		relationship.StatusRejected: {},
		relationship.StatusArchived: {},
	} {
		require.False(t, relationship.CanTransition(status, status), "%s -> %s", status, status)
	}
}

func TestParseStatus(t *testing.T) {
	status, ok := relationship.ParseStatus("ACTIVE")
	require.True(t, ok)
	require.Equal(t, relationship.StatusActive, status)

	_, ok = relationship.ParseStatus("active")
	require.False(t, ok, "enum values are case sensitive")

	_, ok = relationship.ParseStatus("DELETED")
	require.False(t, ok)
}

func TestParsePermissionType(t *testing.T) {
	for _, p := range relationship.AllPermissionTypes {
		parsed, ok := relationship.ParsePermissionType(string(p))
		require.True(t, ok)
		require.Equal(t, p, parsed)
	}
	_, ok := relationship.ParsePermissionType("VIEW_EVERYTHING")
	require.False(t, ok)
}

func TestParseScope(t *testing.T) {
	for _, s := range []string{"ALL", "SELECTED", "NONE"} {
		_, ok := relationship.ParseScope(s)
		require.True(t, ok)
	}
	_, ok := relationship.ParseScope("SOME")
	require.False(t, ok)
}

func TestRelationshipParties(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	rel := &relationship.BusinessRelationship{RequesterID: a, TargetID: b}

	require.True(t, rel.IsParty(a))
	require.True(t, rel.IsParty(b))
	require.False(t, rel.IsParty(c))

	require.Equal(t, b, rel.Other(a))
	require.Equal(t, a, rel.Other(b))
}
