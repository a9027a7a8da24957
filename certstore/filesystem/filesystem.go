// Package filesystem implements a certificate store backed by a directory tree
// laid out as <root>/<location>/<name>/, one certificate bundle per file.
package filesystem

import (
	"context"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/meltwater/spo-webhooks/certstore"
	"github.com/meltwater/spo-webhooks/internal"
	"github.com/meltwater/spo-webhooks/settings"
)

var _ certstore.Store = (*Store)(nil)

// Store implements certstore.Store on top of a local directory.
type Store struct {
	logger log.Logger
	root   string
	opts   options
	now    func() time.Time
}

// New creates a filesystem certificate store rooted at root.
func New(l log.Logger, root string, opts ...Option) (*Store, error) {
	if root == "" {
		return nil, errors.New("certificate store root is required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("certificate store root, %w", err)
	}

	o := options{extensions: extensionSet(DefaultExtensions)}
	for _, opt := range opts {
		opt.apply(&o)
	}

	return &Store{logger: l, root: abs, opts: o, now: time.Now}, nil
}

// Dir returns the directory backing the given store.
func (s *Store) Dir(name settings.StoreName, location settings.StoreLocation) string {
	return filepath.Join(s.root, location.String(), name.String())
}

// Lookup scans the store directory and returns the first certificate matching thumbprint
// that is stored with its own private key. Files that cannot be parsed are skipped.
func (s *Store) Lookup(ctx context.Context, name settings.StoreName, location settings.StoreLocation, thumbprint string) (*certstore.Certificate, error) {
	if !name.IsValid() {
		return nil, fmt.Errorf("store name, %w: %q", settings.ErrUnknownStoreName, name)
	}

	if !location.IsValid() {
		return nil, fmt.Errorf("store location, %w: %q", settings.ErrUnknownStoreLocation, location)
	}

	want := settings.NormalizeThumbprint(thumbprint)
	if want == "" {
		return nil, errors.New("certificate thumbprint is required")
	}

	dir := s.Dir(name, location)
	level.Debug(s.logger).Log("msg", "looking up certificate", "dir", dir, "thumbprint", want)

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("store %s/%s does not exist, %w", location, name, certstore.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("read store directory, %w", err)
	}

	var (
		skipped = &internal.MultiError{}
		// Set when the certificate exists but can not be used, reported instead of ErrNotFound.
		unusable error
	)

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if e.IsDir() {
			continue
		}

		if _, ok := s.opts.extensions[strings.ToLower(filepath.Ext(e.Name()))]; !ok {
			continue
		}

		p := filepath.Join(dir, e.Name())

		certs, key, err := s.load(p)
		if err != nil {
			level.Warn(s.logger).Log("msg", "skipping unreadable certificate file", "file", p, "err", err)
			skipped.Add(fmt.Errorf("%s, %w", e.Name(), err))
		}

		for i, c := range certs {
			if certstore.Thumbprint(c) != want {
				continue
			}

			if key == nil {
				level.Warn(s.logger).Log("msg", "certificate is stored without a private key", "file", p, "thumbprint", want)
				unusable = fmt.Errorf("thumbprint %s in %s, %w", want, p, certstore.ErrNoPrivateKey)

				break
			}

			if !certstore.KeyMatches(c, key) {
				level.Warn(s.logger).Log("msg", "certificate is stored with a foreign private key", "file", p, "thumbprint", want)
				unusable = fmt.Errorf("thumbprint %s in %s, %w", want, p, certstore.ErrKeyMismatch)

				break
			}

			chain := make([]*x509.Certificate, 0, len(certs))
			chain = append(chain, c)
			chain = append(chain, certs[:i]...)
			chain = append(chain, certs[i+1:]...)

			s.checkValidity(c, p)

			return &certstore.Certificate{Leaf: c, Chain: chain, PrivateKey: key, Source: p}, nil
		}
	}

	if skipped.Len() > 0 {
		level.Info(s.logger).Log("msg", "certificate files were skipped during lookup", "count", skipped.Len(), "err", skipped.Err())
	}

	if unusable != nil {
		return nil, unusable
	}

	return nil, fmt.Errorf("thumbprint %s in store %s/%s, %w", want, location, name, certstore.ErrNotFound)
}

// load parses the certificates and private key stored in p. When the file can not be parsed
// as a certificate and key pair, the certificates it holds are still returned with the error.
func (s *Store) load(p string) ([]*x509.Certificate, crypto.PrivateKey, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, nil, fmt.Errorf("open the file, %w", err)
	}
	defer internal.CloseWithErrLogf(s.logger, f, "certificate file %s, close defer", p)

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, fmt.Errorf("read the file, %w", err)
	}

	level.Debug(s.logger).Log("msg", "parsing certificate file", "file", p, "size", humanize.Bytes(uint64(len(data))))

	certs, key, err := azidentity.ParseCertificates(data, s.opts.password)
	if err != nil {
		return certificatesOnly(data), nil, fmt.Errorf("parse certificates, %w", err)
	}

	return certs, key, nil
}

// certificatesOnly decodes the PEM certificate blocks of data, or data itself as DER.
func certificatesOnly(data []byte) []*x509.Certificate {
	var certs []*x509.Certificate

	rest := data
	for {
		var block *pem.Block

		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}

		if block.Type != "CERTIFICATE" {
			continue
		}

		if c, err := x509.ParseCertificate(block.Bytes); err == nil {
			certs = append(certs, c)
		}
	}

	if len(certs) > 0 {
		return certs
	}

	if c, err := x509.ParseCertificate(data); err == nil {
		return []*x509.Certificate{c}
	}

	return nil
}

func (s *Store) checkValidity(c *x509.Certificate, p string) {
	now := s.now()

	switch {
	case now.After(c.NotAfter):
		level.Warn(s.logger).Log("msg", "certificate has expired", "subject", c.Subject.String(), "file", p, "expired", humanize.Time(c.NotAfter))
	case now.Before(c.NotBefore):
		level.Warn(s.logger).Log("msg", "certificate is not valid yet", "subject", c.Subject.String(), "file", p, "validFrom", humanize.Time(c.NotBefore))
	default:
		level.Info(s.logger).Log("msg", "found certificate", "subject", c.Subject.String(), "file", p, "expires", humanize.Time(c.NotAfter))
	}
}
