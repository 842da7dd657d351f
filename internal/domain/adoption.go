package domain

import "time"

// CredentialSet names which configured login is used for an adoption
type CredentialSet string

const (
	CredentialsDefault   CredentialSet = "default"
	CredentialsAlternate CredentialSet = "alternate"
)

// ParseCredentialSet converts a string to CredentialSet, defaulting to CredentialsDefault
func ParseCredentialSet(s string) CredentialSet {
	switch s {
	case "alternate", "alt":
		return CredentialsAlternate
	default:
		return CredentialsDefault
	}
}

// AdoptionRun is the persisted record of one finished adoption attempt
type AdoptionRun struct {
	ID            string        `json:"id"`
	Address       string        `json:"address"`
	Credentials   CredentialSet `json:"credentials"`
	Username      string        `json:"username"`
	ControllerURL string        `json:"controller_url"`
	Status        Status        `json:"status"`
	ErrorKind     string        `json:"error_kind,omitempty"`
	Error         string        `json:"error,omitempty"`
	TimedOut      bool          `json:"timed_out"`
	Transcript    string        `json:"transcript"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
}

// Duration returns how long the attempt ran
func (r AdoptionRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
