// Package jwtauth issues the keypair-authenticator JWT Snowflake expects
// for SNOWFLAKE_JWT logins.
package jwtauth

import (
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/deltarule/sfclient/pkg/cache"
	sfcrypto "github.com/deltarule/sfclient/pkg/crypto"
)

// ErrCredential wraps any failure parsing the private key or signing the
// claim set.
var ErrCredential = errors.New("credential error")

const validFor = 24 * time.Hour

// Issuer issues keypair-authenticator JWTs. Parsed keys and their
// fingerprints are memoized by a digest of the PEM bytes, so the
// login/renewal cycles of a long-lived process don't reparse and re-hash
// the same key on every issuance.
type Issuer struct {
	keys         *cache.Cache[string, *rsa.PrivateKey]
	fingerprints *cache.Cache[string, string]
}

// NewIssuer creates an Issuer with a small private-key cache.
func NewIssuer() *Issuer {
	keys, _ := cache.New[string, *rsa.PrivateKey](16, 0)
	fingerprints, _ := cache.New[string, string](16, 0)
	return &Issuer{keys: keys, fingerprints: fingerprints}
}

// Issue builds and signs the JWT used as the TOKEN field of a
// SNOWFLAKE_JWT login body. fullIdentifier must already be
// "{ACCOUNT}.{USERNAME}", both uppercase.
func (iss *Issuer) Issue(pemBytes []byte, fullIdentifier string) (string, error) {
	digest := sha256.Sum256(pemBytes)
	pemKey := hex.EncodeToString(digest[:])

	privKey, err := iss.keys.GetOrCompute(pemKey, func() (*rsa.PrivateKey, error) {
		return sfcrypto.ParsePKCS8RSAPrivateKey(pemBytes)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredential, err)
	}

	fingerprint, err := iss.fingerprints.GetOrCompute(pemKey, func() (string, error) {
		return sfcrypto.Fingerprint(privKey)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredential, err)
	}

	now := time.Now().Truncate(time.Second)
	c := jwt.RegisteredClaims{
		Issuer:    fmt.Sprintf("%s.SHA256:%s", fullIdentifier, fingerprint),
		Subject:   fullIdentifier,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(validFor)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	signed, err := token.SignedString(privKey)
	if err != nil {
		return "", fmt.Errorf("%w: sign jwt: %v", ErrCredential, err)
	}
	return signed, nil
}
