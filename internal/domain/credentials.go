package domain

// Credentials is a username/password pair used for SSH adoption
type Credentials struct {
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// IsZero reports whether no username is configured
func (c Credentials) IsZero() bool {
	return c.Username == ""
}

// CredentialsSummary is a safe view of a credential set (no password)
type CredentialsSummary struct {
	Set         CredentialSet `json:"set"`
	Username    string        `json:"username"`
	HasPassword bool          `json:"has_password"`
	Configured  bool          `json:"configured"`
}

// ToSummary creates a safe summary view of the credentials
func (c Credentials) ToSummary(set CredentialSet) CredentialsSummary {
	return CredentialsSummary{
		Set:         set,
		Username:    c.Username,
		HasPassword: c.Password != "",
		Configured:  !c.IsZero(),
	}
}
