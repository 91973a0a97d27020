package auth

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadCredentials reads a credential table from a JSON file mapping
// username to credential, replacing the built-in table wholesale. Every
// entry must name a known role and a non-empty secret.
func LoadCredentials(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials file %s: %w", path, err)
	}
	if len(creds) == 0 {
		return nil, fmt.Errorf("credentials file %s: no entries", path)
	}
	for username, cred := range creds {
		if username == "" {
			return nil, fmt.Errorf("credentials file %s: empty username", path)
		}
		if cred.Secret == "" {
			return nil, fmt.Errorf("credentials file %s: user %q has empty secret", path, username)
		}
		if !knownRole(cred.Role) {
			return nil, fmt.Errorf("credentials file %s: user %q has unknown role %q", path, username, cred.Role)
		}
	}
	return creds, nil
}

// LoadPermissions reads a permission table from a JSON file mapping role
// to permission set, replacing the built-in table wholesale. Scope lists
// may use the "all" wildcard.
func LoadPermissions(path string) (Permissions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read permissions file: %w", err)
	}
	var perms Permissions
	if err := json.Unmarshal(data, &perms); err != nil {
		return nil, fmt.Errorf("parse permissions file %s: %w", path, err)
	}
	if len(perms) == 0 {
		return nil, fmt.Errorf("permissions file %s: no entries", path)
	}
	for role, set := range perms {
		if !knownRole(role) {
			return nil, fmt.Errorf("permissions file %s: unknown role %q", path, role)
		}
		for _, scopes := range [][]Scope{set.CanView, set.CanEdit, set.CanDelete} {
			for _, s := range scopes {
				if s != ScopeAll && !ValidRecordScope(s) {
					return nil, fmt.Errorf("permissions file %s: role %q lists unknown scope %q", path, role, s)
				}
			}
		}
	}
	return perms, nil
}

func knownRole(r Role) bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}
