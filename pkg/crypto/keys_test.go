package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"
)

func generateTestPEM(t *testing.T) ([]byte, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	block := &pem.Block{Type: "PRIVATE KEY", Bytes: der}
	return pem.EncodeToMemory(block), key
}

func TestParsePKCS8RSAPrivateKey(t *testing.T) {
	pemBytes, want := generateTestPEM(t)

	got, err := ParsePKCS8RSAPrivateKey(pemBytes)
	require.NoError(t, err)
	require.Equal(t, want.N, got.N)
}

func TestParsePKCS8RSAPrivateKey_PKCS1(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der := x509.MarshalPKCS1PrivateKey(key)
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}
	pemBytes := pem.EncodeToMemory(block)

	got, err := ParsePKCS8RSAPrivateKey(pemBytes)
	require.NoError(t, err)
	require.Equal(t, key.N, got.N)
}

func TestParsePKCS8RSAPrivateKey_InvalidPEM(t *testing.T) {
	_, err := ParsePKCS8RSAPrivateKey([]byte("not a pem block"))
	require.ErrorIs(t, err, ErrInvalidPEMBlock)
}

func TestFingerprint_Deterministic(t *testing.T) {
	_, key := generateTestPEM(t)

	a, err := Fingerprint(key)
	require.NoError(t, err)
	b, err := Fingerprint(key)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.NotEmpty(t, a)
}
