package jwtauth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func testPEM(t *testing.T) ([]byte, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), key
}

// TestIssue_RoundTrip verifies invariant #5: iss contains "SHA256:" followed
// by base64(SHA-256(DER(public_key))); iat/exp are integer seconds 86400 apart.
func TestIssue_RoundTrip(t *testing.T) {
	pemBytes, key := testPEM(t)
	issuer := NewIssuer()

	signed, err := issuer.Issue(pemBytes, "ACME.ALICE")
	require.NoError(t, err)

	token, _, err := jwt.NewParser().ParseUnverified(signed, &jwt.RegisteredClaims{})
	require.NoError(t, err)
	claims := token.Claims.(*jwt.RegisteredClaims)

	require.Equal(t, "ACME.ALICE", claims.Subject)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	sum := sha256.Sum256(der)
	wantFingerprint := base64.StdEncoding.EncodeToString(sum[:])

	require.True(t, strings.HasPrefix(claims.Issuer, "ACME.ALICE.SHA256:"))
	require.Equal(t, "ACME.ALICE.SHA256:"+wantFingerprint, claims.Issuer)

	iat := claims.IssuedAt.Unix()
	exp := claims.ExpiresAt.Unix()
	require.Equal(t, int64(86400), exp-iat)
}

func TestIssue_CachesParsedKey(t *testing.T) {
	pemBytes, _ := testPEM(t)
	issuer := NewIssuer()

	_, err := issuer.Issue(pemBytes, "ACME.ALICE")
	require.NoError(t, err)
	require.Equal(t, 1, issuer.keys.Len())

	_, err = issuer.Issue(pemBytes, "ACME.ALICE")
	require.NoError(t, err)
	require.Equal(t, 1, issuer.keys.Len(), "second issuance for the same PEM must reuse the cached key")
}

func TestIssue_InvalidPEM(t *testing.T) {
	issuer := NewIssuer()
	_, err := issuer.Issue([]byte("garbage"), "ACME.ALICE")
	require.ErrorIs(t, err, ErrCredential)
}
