package auth

// PermissionSet is the capability bundle of a single role. A ScopeAll entry
// in any scope list grants that verb on every record scope.
type PermissionSet struct {
	CanView        []Scope `json:"can_view"`
	CanEdit        []Scope `json:"can_edit"`
	CanDelete      []Scope `json:"can_delete"`
	CanUpload      bool    `json:"can_upload"`
	CanManageUsers bool    `json:"can_manage_users"`
	Description    string  `json:"description"`
}

// Permissions maps role to its capability set. Like Credentials, the table
// is static configuration passed in at construction.
type Permissions map[Role]PermissionSet

// DefaultPermissions returns the built-in five-role permission table.
func DefaultPermissions() Permissions {
	return Permissions{
		RoleAdmin: {
			CanView:        []Scope{ScopeAll},
			CanEdit:        []Scope{ScopeAll},
			CanDelete:      []Scope{ScopeAll},
			CanUpload:      true,
			CanManageUsers: true,
			Description:    "Full system access",
		},
		RoleTribe1: {
			CanView:     []Scope{ScopeTribe1, ScopePublic},
			CanEdit:     []Scope{ScopeTribe1},
			CanDelete:   []Scope{ScopeTribe1},
			CanUpload:   true,
			Description: "Tribe 1 community access",
		},
		RoleTribe2: {
			CanView:     []Scope{ScopeTribe2, ScopePublic},
			CanEdit:     []Scope{ScopeTribe2},
			CanDelete:   []Scope{ScopeTribe2},
			CanUpload:   true,
			Description: "Tribe 2 community access",
		},
		RoleTribe3: {
			CanView:     []Scope{ScopeTribe3, ScopePublic},
			CanEdit:     []Scope{ScopeTribe3},
			CanDelete:   []Scope{ScopeTribe3},
			CanUpload:   true,
			Description: "Tribe 3 community access",
		},
		RoleGuest: {
			CanView:     []Scope{ScopePublic},
			Description: "Public read-only access",
		},
	}
}
