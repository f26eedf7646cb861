package rbac

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Engine answers permission queries against grant sets precomputed by
// Compile. The hot path is plain set lookups; no pattern matching
// happens per request.
type Engine struct {
	grants map[Role]map[string]struct{}
}

// Compile expands the configuration into one flat grant set per role.
// Any malformed pattern, pattern matching no known permission, unknown
// inherited role, or inheritance cycle is a configuration error; callers
// treat it as startup-fatal.
func Compile(cfg Config) (*Engine, error) {
	engine := &Engine{grants: make(map[Role]map[string]struct{})}

	for scope, sc := range cfg.Scopes {
		universe := expandUniverse(scope, sc.Resources)

		direct := make(map[Role]map[string]struct{}, len(sc.Roles))
		for role, rc := range sc.Roles {
			set := make(map[string]struct{})
			for _, pattern := range rc.Permissions {
				matched, err := expandPattern(pattern, universe)
				if err != nil {
					return nil, fmt.Errorf("rbac: role %q: %w", role, err)
				}
				for _, perm := range matched {
					set[perm] = struct{}{}
				}
			}
			direct[role] = set
		}

		resolved := make(map[Role]map[string]struct{}, len(sc.Roles))
		state := make(map[Role]int, len(sc.Roles)) // 0 unvisited, 1 visiting, 2 done
		var resolve func(role Role) (map[string]struct{}, error)
		resolve = func(role Role) (map[string]struct{}, error) {
			switch state[role] {
			case 1:
				return nil, fmt.Errorf("rbac: inheritance cycle through role %q", role)
			case 2:
				return resolved[role], nil
			}
			rc, ok := sc.Roles[role]
			if !ok {
				return nil, fmt.Errorf("rbac: unknown role %q referenced in inheritance", role)
			}
			state[role] = 1
			set := make(map[string]struct{}, len(direct[role]))
			for perm := range direct[role] {
				set[perm] = struct{}{}
			}
			for _, parent := range rc.Inherits {
				parentSet, err := resolve(parent)
				if err != nil {
					return nil, err
				}
				for perm := range parentSet {
					set[perm] = struct{}{}
				}
			}
			state[role] = 2
			resolved[role] = set
			return set, nil
		}

		for role := range sc.Roles {
			set, err := resolve(role)
			if err != nil {
				return nil, err
			}
			if existing, ok := engine.grants[role]; ok {
				for perm := range set {
					existing[perm] = struct{}{}
				}
			} else {
				engine.grants[role] = set
			}
		}
	}

	return engine, nil
}

// MustCompile is Compile for static configurations known to be valid.
func MustCompile(cfg Config) *Engine {
	engine, err := Compile(cfg)
	if err != nil {
		panic(err)
	}
	return engine
}

// HasPermission reports whether any of the held roles satisfies the
// required permission. A grant with variant "any" satisfies an "own"
// requirement for the same resource and action.
func (e *Engine) HasPermission(roles []Role, required string) bool {
	anySibling := ""
	if strings.HasSuffix(required, ":"+VariantOwn) {
		anySibling = strings.TrimSuffix(required, VariantOwn) + VariantAny
	}
	for _, role := range roles {
		set, ok := e.grants[role]
		if !ok {
			continue
		}
		if _, ok := set[required]; ok {
			return true
		}
		if anySibling != "" {
			if _, ok := set[anySibling]; ok {
				return true
			}
		}
	}
	return false
}

// HasAnyPermission reports whether at least one required permission is satisfied.
func (e *Engine) HasAnyPermission(roles []Role, required ...string) bool {
	for _, perm := range required {
		if e.HasPermission(roles, perm) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every required permission is satisfied.
func (e *Engine) HasAllPermissions(roles []Role, required ...string) bool {
	for _, perm := range required {
		if !e.HasPermission(roles, perm) {
			return false
		}
	}
	return true
}

// PermissionsForRole returns the full expanded grant set, sorted, for
// introspection and audit views.
func (e *Engine) PermissionsForRole(role Role) []string {
	set, ok := e.grants[role]
	if !ok {
		return nil
	}
	perms := make([]string, 0, len(set))
	for perm := range set {
		perms = append(perms, perm)
	}
	sort.Strings(perms)
	return perms
}

// Roles returns all roles known to the engine, sorted.
func (e *Engine) Roles() []Role {
	roles := make([]Role, 0, len(e.grants))
	for role := range e.grants {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// expandUniverse produces every concrete permission string for a scope.
func expandUniverse(scope string, resources map[string]ResourceConfig) []string {
	var universe []string
	for resource, rc := range resources {
		for _, action := range rc.Actions {
			base := scope + ":" + resource + "." + action
			universe = append(universe, base)
			for _, variant := range rc.Variants {
				universe = append(universe, base+":"+variant)
			}
		}
	}
	sort.Strings(universe)
	return universe
}

// expandPattern resolves a role permission pattern against the universe.
// A bare "*" grants everything; a pattern containing "*" is matched with
// each wildcard standing for any run of non-":" characters; anything
// else must name an existing permission exactly.
func expandPattern(pattern string, universe []string) ([]string, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, fmt.Errorf("empty permission pattern")
	}
	if pattern == "*" {
		return universe, nil
	}
	if !strings.Contains(pattern, "*") {
		for _, perm := range universe {
			if perm == pattern {
				return []string{perm}, nil
			}
		}
		return nil, fmt.Errorf("permission %q does not exist", pattern)
	}
	expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, `[^:]*`) + "$"
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("malformed pattern %q: %w", pattern, err)
	}
	var matched []string
	for _, perm := range universe {
		if re.MatchString(perm) {
			matched = append(matched, perm)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("pattern %q matches no permission", pattern)
	}
	return matched, nil
}
