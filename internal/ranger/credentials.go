package ranger

// CredentialProvider supplies HTTP Basic credentials for product requests.
// Credential resolution (environment, config service) happens outside this
// package; readers only ever see an explicit provider value.
type CredentialProvider interface {
	// Basic returns the username/password pair, or ok=false when requests
	// should be unauthenticated.
	Basic() (username, password string, ok bool)
}

// StaticCredentials is a CredentialProvider holding a fixed pair.
type StaticCredentials struct {
	Username string
	Password string
}

// Basic implements CredentialProvider.
func (c StaticCredentials) Basic() (string, string, bool) {
	if c.Username == "" {
		return "", "", false
	}
	return c.Username, c.Password, true
}

// Anonymous is a CredentialProvider that never authenticates.
type Anonymous struct{}

// Basic implements CredentialProvider.
func (Anonymous) Basic() (string, string, bool) { return "", "", false }
