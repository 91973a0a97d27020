package auth

// Credential is a stored login entry. Secrets are compared verbatim: the
// credential table is fixture configuration, not a user database, and the
// comparison semantics are part of the contract.
type Credential struct {
	Secret string `json:"secret"`
	Role   Role   `json:"role"`
}

// Credentials maps username to its credential. The table is immutable at
// runtime; it is supplied at construction so tests can run in isolation
// with their own fixtures.
type Credentials map[string]Credential

// DefaultCredentials returns the built-in demo credential table.
func DefaultCredentials() Credentials {
	return Credentials{
		"admin":  {Secret: "seedvault", Role: RoleAdmin},
		"guest":  {Secret: "guest123", Role: RoleGuest},
		"tribe1": {Secret: "tribe1pass", Role: RoleTribe1},
		"tribe2": {Secret: "tribe2pass", Role: RoleTribe2},
		"tribe3": {Secret: "tribe3pass", Role: RoleTribe3},
	}
}
