// Package settings holds the configuration of the SharePoint webhook function:
// who it authenticates as and which certificate it authenticates with.
package settings

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/meltwater/spo-webhooks/internal"
)

// ThumbprintLength is the number of hex digits in a SHA-1 certificate thumbprint.
const ThumbprintLength = 40

// AzureFunctionSettings is a structure to store the function configuration.
// It is plain data: nothing is checked on assignment, call Validate before use.
type AzureFunctionSettings struct {
	TenantID   string // Directory (tenant) ID of the authority
	TenantName string // Tenant domain, e.g. contoso.onmicrosoft.com
	ClientID   string // Application (client) ID

	CertificateStoreName     StoreName
	CertificateStoreLocation StoreLocation
	CertificateThumbprint    string
}

// Authority returns the tenant used to address the identity authority.
// TenantID wins over TenantName when both are set.
func (s AzureFunctionSettings) Authority() string {
	if id := strings.TrimSpace(s.TenantID); id != "" {
		return id
	}

	return strings.TrimSpace(s.TenantName)
}

// Validate reports every problem with the settings at once.
func (s AzureFunctionSettings) Validate() error {
	errs := &internal.MultiError{}

	if s.Authority() == "" {
		errs.Add(errors.New("tenant id or tenant name is required"))
	}

	if strings.TrimSpace(s.ClientID) == "" {
		errs.Add(errors.New("client id is required"))
	}

	if !s.CertificateStoreName.IsValid() {
		errs.Add(fmt.Errorf("certificate store name, %w: %q", ErrUnknownStoreName, s.CertificateStoreName))
	}

	if !s.CertificateStoreLocation.IsValid() {
		errs.Add(fmt.Errorf("certificate store location, %w: %q", ErrUnknownStoreLocation, s.CertificateStoreLocation))
	}

	if err := validateThumbprint(s.CertificateThumbprint); err != nil {
		errs.Add(err)
	}

	return errs.Err()
}

// LogValues returns the settings as key/value pairs for structured logging.
func (s AzureFunctionSettings) LogValues() []interface{} {
	return []interface{}{
		"tenantID", s.TenantID,
		"tenantName", s.TenantName,
		"clientID", s.ClientID,
		"storeName", s.CertificateStoreName,
		"storeLocation", s.CertificateStoreLocation,
		"thumbprint", NormalizeThumbprint(s.CertificateThumbprint),
	}
}

// NormalizeThumbprint upper-cases a thumbprint and strips separators and invisible characters
// that creep in when it is copied from a certificate viewer.
func NormalizeThumbprint(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == ':' || r == '-' || unicode.IsSpace(r) || unicode.Is(unicode.Cf, r):
			return -1
		default:
			return unicode.ToUpper(r)
		}
	}, s)
}

func validateThumbprint(s string) error {
	tp := NormalizeThumbprint(s)
	if tp == "" {
		return errors.New("certificate thumbprint is required")
	}

	if len(tp) != ThumbprintLength {
		return fmt.Errorf("certificate thumbprint must be %d hex digits, got %d", ThumbprintLength, len(tp))
	}

	for _, r := range tp {
		if !strings.ContainsRune("0123456789ABCDEF", r) {
			return fmt.Errorf("certificate thumbprint contains non-hex character %q", r)
		}
	}

	return nil
}
