package artifact

import "seedvault.org/internal/auth"

// ScopeVisibleTo is the three-way retrieval rule: admin sees everything,
// public is visible to everyone, otherwise the requester role must equal
// the scope exactly.
func ScopeVisibleTo(role auth.Role, scope auth.Scope) bool {
	if role == auth.RoleAdmin {
		return true
	}
	if scope == auth.ScopePublic {
		return true
	}
	return string(role) == string(scope)
}

// VisibleTo reports whether the record may be shown to the given role.
func VisibleTo(role auth.Role, m Metadata) bool {
	return ScopeVisibleTo(role, m.AccessScope)
}

// FilterVisible returns the records visible to role, preserving order.
func FilterVisible(role auth.Role, records []Metadata) []Metadata {
	out := make([]Metadata, 0, len(records))
	for _, m := range records {
		if VisibleTo(role, m) {
			out = append(out, m)
		}
	}
	return out
}
