// ABOUTME: Apple pass signing - PKCS#12 identity loading and detached CMS signatures
// ABOUTME: An unconfigured signer fails recoverably; pass records stay valid without certificates

package apple

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"go.mozilla.org/pkcs7"
	"golang.org/x/crypto/pkcs12"

	"github.com/sbcwallet/passbridge/internal/config"
)

// ErrSignerNotConfigured indicates no Apple signing identity was
// configured. Expected in development and demo environments; callers
// treat the resulting render failure as recoverable.
var ErrSignerNotConfigured = errors.New("apple signing identity not configured")

// Signer holds the pass signing identity: the pass-type certificate and
// key from a PKCS#12 bundle plus Apple's WWDR intermediate certificate.
type Signer struct {
	key  crypto.PrivateKey
	cert *x509.Certificate
	wwdr *x509.Certificate
}

// NewSigner loads the signing identity from the configured certificate
// paths. An empty certificate path yields an unconfigured signer whose
// Sign always fails with ErrSignerNotConfigured.
func NewSigner(cfg config.AppleConfig) (*Signer, error) {
	if cfg.CertificatePath == "" {
		return &Signer{}, nil
	}

	p12, err := os.ReadFile(cfg.CertificatePath)
	if err != nil {
		return nil, fmt.Errorf("reading certificate bundle: %w", err)
	}
	key, cert, err := pkcs12.Decode(p12, cfg.CertificatePass)
	if err != nil {
		return nil, fmt.Errorf("decoding certificate bundle: %w", err)
	}

	wwdr, err := loadCertificate(cfg.WWDRPath)
	if err != nil {
		return nil, fmt.Errorf("loading WWDR certificate: %w", err)
	}

	return &Signer{key: key, cert: cert, wwdr: wwdr}, nil
}

// Configured reports whether a signing identity is loaded.
func (s *Signer) Configured() bool {
	return s.cert != nil
}

// Sign produces a detached CMS signature over the manifest bytes,
// embedding the WWDR intermediate so wallets can build the chain.
func (s *Signer) Sign(manifest []byte) ([]byte, error) {
	if !s.Configured() {
		return nil, ErrSignerNotConfigured
	}

	signed, err := pkcs7.NewSignedData(manifest)
	if err != nil {
		return nil, fmt.Errorf("preparing signature: %w", err)
	}
	if err := signed.AddSigner(s.cert, s.key, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, fmt.Errorf("adding signer: %w", err)
	}
	if s.wwdr != nil {
		signed.AddCertificate(s.wwdr)
	}
	signed.Detach()

	sig, err := signed.Finish()
	if err != nil {
		return nil, fmt.Errorf("finishing signature: %w", err)
	}
	return sig, nil
}

// loadCertificate reads a certificate file in PEM or DER form.
func loadCertificate(path string) (*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if block, _ := pem.Decode(data); block != nil {
		data = block.Bytes
	}
	return x509.ParseCertificate(data)
}
