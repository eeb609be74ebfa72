// ABOUTME: Google service account JSON loading for Save URL signing
// ABOUTME: Absence of credentials is not an error; the pipeline degrades to unsigned URLs

package config

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
)

// ServiceAccount carries the parsed signing identity from a Google
// service account JSON file.
type ServiceAccount struct {
	ClientEmail string
	PrivateKey  *rsa.PrivateKey
}

// serviceAccountFile is the on-disk JSON shape (standard Google format).
type serviceAccountFile struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// LoadServiceAccount parses a Google service account JSON file.
// An empty path returns (nil, nil): the caller runs in degraded mode and
// produces unsigned save URLs.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading service account file: %w", err)
	}

	var file serviceAccountFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing service account file: %w", err)
	}
	if file.ClientEmail == "" {
		return nil, fmt.Errorf("service account file missing client_email")
	}

	key, err := parseRSAPrivateKey([]byte(file.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("parsing service account private key: %w", err)
	}

	return &ServiceAccount{
		ClientEmail: file.ClientEmail,
		PrivateKey:  key,
	}, nil
}

// parseRSAPrivateKey decodes a PEM-encoded RSA key in either PKCS#8 or
// PKCS#1 form (Google issues PKCS#8).
func parseRSAPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key is not RSA")
		}
		return rsaKey, nil
	}

	return x509.ParsePKCS1PrivateKey(block.Bytes)
}
