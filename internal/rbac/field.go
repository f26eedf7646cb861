package rbac

import (
	"fmt"
	"strings"
)

// Field-level permission grammar: "resource@action[:scope]". This is a
// second, independent grammar used only to redact object fields a role
// may not view. It deliberately stays separate from the colon-delimited
// route grammar; call sites assume the distinct syntaxes.

// FieldPermission is a parsed resource@action[:scope] string.
type FieldPermission struct {
	Resource string
	Action   string
	Scope    string
}

// ParseFieldPermission parses "resource@action" or "resource@action:scope".
func ParseFieldPermission(s string) (FieldPermission, error) {
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return FieldPermission{}, fmt.Errorf("rbac: malformed field permission %q", s)
	}
	perm := FieldPermission{Resource: s[:at]}
	rest := s[at+1:]
	if colon := strings.Index(rest, ":"); colon >= 0 {
		perm.Action = rest[:colon]
		perm.Scope = rest[colon+1:]
	} else {
		perm.Action = rest
	}
	if perm.Action == "" {
		return FieldPermission{}, fmt.Errorf("rbac: malformed field permission %q", s)
	}
	return perm, nil
}

// MustParseFieldPermission parses a statically known permission string.
func MustParseFieldPermission(s string) FieldPermission {
	perm, err := ParseFieldPermission(s)
	if err != nil {
		panic(err)
	}
	return perm
}

// String renders the permission back to its wire form.
func (p FieldPermission) String() string {
	s := p.Resource + "@" + p.Action
	if p.Scope != "" {
		s += ":" + p.Scope
	}
	return s
}

// Covers reports whether a granted permission satisfies a required one.
// Resource and action match exactly or via "*"; the scope matches when
// the requirement has none, the grant is "any", or they are equal.
func Covers(granted, required FieldPermission) bool {
	if granted.Resource != "*" && granted.Resource != required.Resource {
		return false
	}
	if granted.Action != "*" && granted.Action != required.Action {
		return false
	}
	if required.Scope == "" {
		return true
	}
	return granted.Scope == VariantAny || granted.Scope == required.Scope
}

// Can reports whether any grant covers the required permission.
func Can(grants []FieldPermission, required FieldPermission) bool {
	for _, granted := range grants {
		if Covers(granted, required) {
			return true
		}
	}
	return false
}

// FilterFields returns a copy of data with every key whose declared
// requirement is not covered by the grants removed. Keys without a
// declared requirement pass through untouched.
func FilterFields(grants []FieldPermission, data map[string]any, requirements map[string]FieldPermission) map[string]any {
	filtered := make(map[string]any, len(data))
	for key, value := range data {
		if required, ok := requirements[key]; ok && !Can(grants, required) {
			continue
		}
		filtered[key] = value
	}
	return filtered
}

// FieldGrants returns the field-level grants held by a role.
func FieldGrants(role Role) []FieldPermission {
	return fieldGrants[role]
}

var fieldGrants = map[Role][]FieldPermission{
	RoleUser: {
		MustParseFieldPermission("users@read:own"),
	},
	RoleModerator: {
		MustParseFieldPermission("users@read:own"),
		MustParseFieldPermission("users@read:any"),
	},
	RoleAdministrator: {
		MustParseFieldPermission("*@*:any"),
	},
}
