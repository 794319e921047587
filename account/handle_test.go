package account

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewHandle_Uppercases(t *testing.T) {
	h := NewHandle("acme-east1", "alice", "compute_wh", "analytics", "public", "sysadmin")

	require.Equal(t, "ACME-EAST1", h.AccountIdentifier)
	require.Equal(t, "ALICE", h.Username)
	require.Equal(t, "COMPUTE_WH", h.Warehouse)
	require.Equal(t, "ANALYTICS", h.Database)
	require.Equal(t, "PUBLIC", h.Schema)
	require.Equal(t, "SYSADMIN", h.Role)
}

func TestHandle_FullIdentifier(t *testing.T) {
	h := NewHandle("acme", "alice", "", "", "", "")
	require.Equal(t, "ACME.ALICE", h.FullIdentifier())
}

func TestCredentials_ClosedUnion(t *testing.T) {
	var creds []Credentials
	creds = append(creds, KeypairCredentials{PrivateKeyPEM: []byte("pem")})
	creds = append(creds, PasswordCredentials{Password: "hunter2"})
	creds = append(creds, OAuthCredentials{AccessToken: "tok"})

	require.Len(t, creds, 3)
	for _, c := range creds {
		switch c.(type) {
		case KeypairCredentials, PasswordCredentials, OAuthCredentials:
		default:
			t.Fatalf("unexpected credentials type %T", c)
		}
	}
}
