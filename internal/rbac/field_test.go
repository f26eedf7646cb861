package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFieldPermission(t *testing.T) {
	perm, err := ParseFieldPermission("users@read:own")
	require.NoError(t, err)
	require.Equal(t, FieldPermission{Resource: "users", Action: "read", Scope: "own"}, perm)
	require.Equal(t, "users@read:own", perm.String())

	perm, err = ParseFieldPermission("animes@update")
	require.NoError(t, err)
	require.Empty(t, perm.Scope)
	require.Equal(t, "animes@update", perm.String())

	_, err = ParseFieldPermission("noseparator")
	require.Error(t, err)
	_, err = ParseFieldPermission("users@")
	require.Error(t, err)
}

func TestCovers(t *testing.T) {
	cases := []struct {
		granted  string
		required string
		want     bool
	}{
		{"users@read:any", "users@read:own", true},
		{"users@read:own", "users@read:own", true},
		{"users@read:own", "users@read:any", false},
		{"users@read", "users@read", true},
		{"*@read:any", "users@read:own", true},
		{"users@*:any", "users@update:own", true},
		{"animes@read:any", "users@read:own", false},
		{"users@update:any", "users@read:own", false},
		{"users@read:any", "users@read", true},
	}
	for _, tc := range cases {
		granted := MustParseFieldPermission(tc.granted)
		required := MustParseFieldPermission(tc.required)
		require.Equal(t, tc.want, Covers(granted, required), "%s covers %s", tc.granted, tc.required)
	}
}

func TestFilterFields(t *testing.T) {
	requirements := map[string]FieldPermission{
		"email":    MustParseFieldPermission("users@read:own"),
		"password": MustParseFieldPermission("users@admin"),
	}
	data := map[string]any{
		"id":       "u1",
		"name":     "Hayase",
		"email":    "hayase@example.com",
		"password": "secret",
	}

	filtered := FilterFields(FieldGrants(RoleModerator), data, requirements)
	require.Contains(t, filtered, "email")
	require.NotContains(t, filtered, "password")
	require.Contains(t, filtered, "id")
	require.Contains(t, filtered, "name")

	// Administrator's *@*:any grant covers everything with a scope.
	filtered = FilterFields(FieldGrants(RoleAdministrator), data, requirements)
	require.Contains(t, filtered, "password")
}
