package auth

import "errors"

// LoginResult carries the outcome of a successful authentication.
type LoginResult struct {
	Username    string
	Role        Role
	Permissions PermissionSet
}

// Authenticator resolves credentials against a fixed table. Lookup and
// comparison are case-sensitive exact matches; no hashing is applied.
// Login has no side effects and is safe to call repeatedly.
type Authenticator struct {
	creds Credentials
	perms Permissions
}

// NewAuthenticator builds an authenticator over the given tables.
func NewAuthenticator(creds Credentials, perms Permissions) (*Authenticator, error) {
	if len(creds) == 0 {
		return nil, errors.New("auth: credentials table is required")
	}
	if len(perms) == 0 {
		return nil, errors.New("auth: permissions table is required")
	}
	return &Authenticator{creds: creds, perms: perms}, nil
}

// Login authenticates username/secret. Unknown users and wrong secrets are
// distinguished by sentinel error so callers can audit the difference; the
// HTTP boundary collapses both into one generic message.
func (a *Authenticator) Login(username, secret string) (LoginResult, error) {
	cred, ok := a.creds[username]
	if !ok {
		return LoginResult{}, ErrUnknownUser
	}
	if cred.Secret != secret {
		return LoginResult{}, ErrWrongSecret
	}
	return LoginResult{
		Username:    username,
		Role:        cred.Role,
		Permissions: a.perms[cred.Role],
	}, nil
}
