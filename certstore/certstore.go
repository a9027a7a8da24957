// Package certstore resolves the certificate the function authenticates with.
package certstore

import (
	"context"
	"crypto"
	"crypto/sha1" // nolint:gosec // thumbprints are SHA-1 by definition.
	"crypto/x509"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/meltwater/spo-webhooks/settings"
)

var (
	// ErrNotFound is returned when no certificate in the store matches the thumbprint.
	ErrNotFound = errors.New("certificate not found")
	// ErrNoPrivateKey is returned when the matching certificate is stored without a private key.
	ErrNoPrivateKey = errors.New("certificate has no private key")
	// ErrKeyMismatch is returned when the matching certificate is stored with a key that is not its own.
	ErrKeyMismatch = errors.New("private key does not belong to the certificate")
)

// Certificate is a certificate together with the private key it was stored with.
type Certificate struct {
	Leaf       *x509.Certificate
	Chain      []*x509.Certificate // Leaf first.
	PrivateKey crypto.PrivateKey
	Source     string
}

// Thumbprint returns the thumbprint of the leaf certificate.
func (c *Certificate) Thumbprint() string {
	if c == nil || c.Leaf == nil {
		return ""
	}

	return Thumbprint(c.Leaf)
}

// Store looks certificates up by store name, location and thumbprint.
type Store interface {
	// Lookup returns the certificate matching thumbprint or an error wrapping ErrNotFound.
	Lookup(ctx context.Context, name settings.StoreName, location settings.StoreLocation, thumbprint string) (*Certificate, error)
}

// Thumbprint returns the upper-case hex SHA-1 digest of the DER encoded certificate.
func Thumbprint(cert *x509.Certificate) string {
	sum := sha1.Sum(cert.Raw) // nolint:gosec

	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// KeyMatches reports whether key is the private key of cert.
func KeyMatches(cert *x509.Certificate, key crypto.PrivateKey) bool {
	signer, ok := key.(crypto.Signer)
	if !ok || cert == nil {
		return false
	}

	pub, ok := cert.PublicKey.(interface{ Equal(crypto.PublicKey) bool })
	if !ok {
		return false
	}

	return pub.Equal(signer.Public())
}

// Lookup resolves the certificate described by the given settings.
func Lookup(ctx context.Context, s Store, cfg settings.AzureFunctionSettings) (*Certificate, error) {
	return s.Lookup(ctx, cfg.CertificateStoreName, cfg.CertificateStoreLocation, cfg.CertificateThumbprint)
}
