// Package account models the tenant identity and credentials a Session
// authenticates with.
package account

import "strings"

// Handle identifies a Snowflake tenant. AccountIdentifier and Username are
// normalized to uppercase, matching the server's own convention; Handle is
// immutable once constructed.
type Handle struct {
	AccountIdentifier string
	Username          string
	Warehouse         string
	Database          string
	Schema            string
	Role              string
}

// NewHandle builds a Handle. All fields are uppercased;
// Warehouse/Database/Schema/Role are optional and may be empty.
func NewHandle(accountIdentifier, username, warehouse, database, schema, role string) Handle {
	return Handle{
		AccountIdentifier: strings.ToUpper(accountIdentifier),
		Username:          strings.ToUpper(username),
		Warehouse:         strings.ToUpper(warehouse),
		Database:          strings.ToUpper(database),
		Schema:            strings.ToUpper(schema),
		Role:              strings.ToUpper(role),
	}
}

// FullIdentifier returns "{ACCOUNT}.{USERNAME}", the identity string the
// JWT issuer signs over.
func (h Handle) FullIdentifier() string {
	return h.AccountIdentifier + "." + h.Username
}

// Credentials is a closed tagged union over the three authentication
// schemes Snowflake supports. The unexported method keeps the set closed to
// this package.
type Credentials interface {
	isCredentials()
}

// KeypairCredentials authenticates via a PEM-encoded RSA private key,
// issuing a SNOWFLAKE_JWT login.
type KeypairCredentials struct {
	PrivateKeyPEM []byte
}

func (KeypairCredentials) isCredentials() {}

// PasswordCredentials authenticates with a plaintext password.
type PasswordCredentials struct {
	Password string
}

func (PasswordCredentials) isCredentials() {}

// OAuthCredentials authenticates with a pre-issued OAuth access token.
type OAuthCredentials struct {
	AccessToken string
}

func (OAuthCredentials) isCredentials() {}
