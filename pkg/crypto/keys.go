// Package crypto parses the RSA keypair credentials used for
// keypair-authenticator JWTs and derives the public-key fingerprint
// Snowflake expects in the issuer claim.
package crypto

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

var (
	// ErrInvalidPEMBlock is returned when PEM decoding fails.
	ErrInvalidPEMBlock = errors.New("failed to decode PEM block")
	// ErrInvalidPrivateKey is returned when the PEM block is not a parseable RSA key.
	ErrInvalidPrivateKey = errors.New("invalid private key")
)

// ParsePKCS8RSAPrivateKey decodes an RSA private key from a PEM block.
// It accepts both PKCS#8 ("PRIVATE KEY") and PKCS#1 ("RSA PRIVATE KEY")
// encodings, since operators commonly hold either.
func ParsePKCS8RSAPrivateKey(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, ErrInvalidPEMBlock
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidPrivateKey)
	}
	return rsaKey, nil
}

// Fingerprint computes the SHA-256 digest of the DER-encoded public key
// paired with priv, base64-standard-encoded — the value Snowflake expects
// after "SHA256:" in a keypair-authenticator JWT's issuer claim.
func Fingerprint(priv *rsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}
