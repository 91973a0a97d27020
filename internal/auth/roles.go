package auth

// Role is a named capability bundle assigned to a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleTribe1 Role = "tribe1"
	RoleTribe2 Role = "tribe2"
	RoleTribe3 Role = "tribe3"
	RoleGuest  Role = "guest"
)

// Roles lists every known role in declaration order.
var Roles = []Role{RoleAdmin, RoleTribe1, RoleTribe2, RoleTribe3, RoleGuest}

// Scope is an access-level tag partitioning artifacts. ScopeAll is the
// wildcard usable only inside permission sets, never on a stored record.
type Scope string

const (
	ScopePublic Scope = "public"
	ScopeTribe1 Scope = "tribe1"
	ScopeTribe2 Scope = "tribe2"
	ScopeTribe3 Scope = "tribe3"
	ScopeAll    Scope = "all"
)

// ValidRecordScope reports whether s may be stored on an artifact record.
func ValidRecordScope(s Scope) bool {
	switch s {
	case ScopePublic, ScopeTribe1, ScopeTribe2, ScopeTribe3:
		return true
	}
	return false
}

// Action identifies a capability checked by the access evaluator.
type Action string

const (
	ActionView        Action = "view"
	ActionEdit        Action = "edit"
	ActionDelete      Action = "delete"
	ActionUpload      Action = "upload"
	ActionManageUsers Action = "manageUsers"
)
