// Package rbac compiles a static role configuration into flat permission
// grant sets and answers authorization queries for the HTTP layer.
package rbac

// Role is an enumerated identity tag.
type Role string

// Built-in roles. Administrator is the highest-privilege role and is the
// only role allowed to review its own contributions.
const (
	RoleUser          Role = "user"
	RoleModerator     Role = "moderator"
	RoleAdministrator Role = "administrator"
)

// ScopeGlobal is the single permission namespace used by this system.
const ScopeGlobal = "global"

// Permission variants. A grant with variant "any" satisfies a requirement
// for "own"; the converse does not hold.
const (
	VariantOwn = "own"
	VariantAny = "any"
)

// ResourceConfig declares the actions available on a resource. When
// Variants is non-empty, each action additionally yields one permission
// string per variant ("scope:resource.action:variant") next to the bare
// form.
type ResourceConfig struct {
	Actions  []string
	Variants []string
}

// RoleConfig maps a role to its directly granted permission patterns and
// the roles it inherits from.
type RoleConfig struct {
	Permissions []string
	Inherits    []Role
}

// ScopeConfig describes one permission namespace: its resource/action
// universe and the roles defined within it.
type ScopeConfig struct {
	Resources map[string]ResourceConfig
	Roles     map[Role]RoleConfig
}

// Config is the full static role configuration, compiled once at startup.
type Config struct {
	Scopes map[string]ScopeConfig
}

// DefaultConfig returns the role configuration shipped with HayaseDB.
func DefaultConfig() Config {
	return Config{
		Scopes: map[string]ScopeConfig{
			ScopeGlobal: {
				Resources: map[string]ResourceConfig{
					"animes": {Actions: []string{"create", "read", "update", "delete"}},
					"genres": {Actions: []string{"create", "read", "update", "delete"}},
					"users": {
						Actions:  []string{"read", "update", "delete"},
						Variants: []string{VariantOwn, VariantAny},
					},
					"contributions": {
						Actions:  []string{"create", "read", "update", "delete", "submit", "review"},
						Variants: []string{VariantOwn, VariantAny},
					},
				},
				Roles: map[Role]RoleConfig{
					RoleUser: {
						Permissions: []string{
							"global:animes.read",
							"global:genres.read",
							"global:users.read:own",
							"global:users.update:own",
							"global:contributions.create",
							"global:contributions.*:own",
						},
					},
					RoleModerator: {
						Inherits: []Role{RoleUser},
						Permissions: []string{
							"global:contributions.read:any",
							"global:contributions.review:any",
							"global:animes.create",
							"global:animes.update",
							"global:genres.create",
							"global:genres.update",
						},
					},
					RoleAdministrator: {
						Permissions: []string{"*"},
					},
				},
			},
		},
	}
}
