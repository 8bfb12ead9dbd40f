package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

// TestKeyPair holds an RSA key pair for assertion signing tests.
type TestKeyPair struct {
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
}

// GenerateTestKeyPair generates a new RSA key pair for testing.
func GenerateTestKeyPair(tb testing.TB) *TestKeyPair {
	tb.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tb.Fatalf("failed to generate RSA key: %v", err)
	}

	return &TestKeyPair{
		PrivateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
	}
}

// PKCS8PEM returns the private key as an unencrypted PKCS#8 PEM block.
func (k *TestKeyPair) PKCS8PEM(tb testing.TB) []byte {
	tb.Helper()

	der, err := x509.MarshalPKCS8PrivateKey(k.PrivateKey)
	if err != nil {
		tb.Fatalf("failed to marshal PKCS#8 key: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

// PKCS1PEM returns the private key as an RSA PRIVATE KEY PEM block.
func (k *TestKeyPair) PKCS1PEM() []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(k.PrivateKey)})
}

// ParseAssertion verifies a signed RS256 assertion with the public key and returns its header and claims.
func ParseAssertion(tb testing.TB, assertion string, publicKey *rsa.PublicKey) (map[string]any, jwt.MapClaims) {
	tb.Helper()

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(assertion, claims, func(token *jwt.Token) (any, error) {
		return publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		tb.Fatalf("failed to parse assertion: %v", err)
	}

	return token.Header, claims
}
