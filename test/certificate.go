package test

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"
)

// Certificate generates a self-signed RSA certificate valid between notBefore and notAfter.
// It returns the parsed certificate, the private key and a PEM bundle holding both.
func Certificate(tb testing.TB, commonName string, notBefore, notAfter time.Time) (*x509.Certificate, *rsa.PrivateKey, []byte) {
	tb.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	Ok(tb, err)

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	Ok(tb, err)

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	Ok(tb, err)

	cert, err := x509.ParseCertificate(der)
	Ok(tb, err)

	pkcs8, err := x509.MarshalPKCS8PrivateKey(key)
	Ok(tb, err)

	var buf bytes.Buffer
	Ok(tb, pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: der}))
	Ok(tb, pem.Encode(&buf, &pem.Block{Type: "PRIVATE KEY", Bytes: pkcs8}))

	return cert, key, buf.Bytes()
}

// ValidCertificate generates a self-signed certificate valid for the next year.
func ValidCertificate(tb testing.TB, commonName string) (*x509.Certificate, *rsa.PrivateKey, []byte) {
	tb.Helper()

	now := time.Now()

	return Certificate(tb, commonName, now.Add(-time.Hour), now.AddDate(1, 0, 0))
}
