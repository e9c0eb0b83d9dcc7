// Package crypto loads the RSA key pair used to sign and verify session
// tokens. Verification-only deployments may load just the public key.
package crypto

import (
	"crypto/rsa"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// KeyPair holds the RS256 signing material. PrivateKey may be nil in
// verification-only contexts.
type KeyPair struct {
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
}

// LoadKeyPair resolves the key pair from inline PEM material or file paths.
// Inline material wins; escaped "\n" sequences are unescaped so keys can be
// carried in single-line environment variables.
func LoadKeyPair(privatePEM, publicPEM, privatePath, publicPath string) (*KeyPair, error) {
	if privatePEM == "" && privatePath != "" {
		data, err := os.ReadFile(privatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key file: %w", err)
		}
		privatePEM = string(data)
	}
	if publicPEM == "" && publicPath != "" {
		data, err := os.ReadFile(publicPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key file: %w", err)
		}
		publicPEM = string(data)
	}

	if publicPEM == "" {
		return nil, fmt.Errorf("no public key material configured")
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(unescape(publicPEM)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	kp := &KeyPair{PublicKey: publicKey}

	if privatePEM != "" {
		privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(unescape(privatePEM)))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		kp.PrivateKey = privateKey
	}

	return kp, nil
}

func unescape(pem string) string {
	return strings.ReplaceAll(pem, `\n`, "\n")
}
