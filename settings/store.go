package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownStoreName is returned when a certificate store name cannot be parsed.
	ErrUnknownStoreName = errors.New("unknown certificate store name")
	// ErrUnknownStoreLocation is returned when a certificate store location cannot be parsed.
	ErrUnknownStoreLocation = errors.New("unknown certificate store location")
)

// StoreName is the logical category of a certificate store.
// Numeric values match the ones used by .NET settings files.
type StoreName int

const (
	StoreNameUnspecified StoreName = iota
	AddressBook
	AuthRoot
	CertificateAuthority
	Disallowed
	My
	Root
	TrustedPeople
	TrustedPublisher
)

var storeNames = [...]string{
	StoreNameUnspecified: "",
	AddressBook:          "AddressBook",
	AuthRoot:             "AuthRoot",
	CertificateAuthority: "CertificateAuthority",
	Disallowed:           "Disallowed",
	My:                   "My",
	Root:                 "Root",
	TrustedPeople:        "TrustedPeople",
	TrustedPublisher:     "TrustedPublisher",
}

// StoreNames lists every specified store name.
func StoreNames() []StoreName {
	return []StoreName{AddressBook, AuthRoot, CertificateAuthority, Disallowed, My, Root, TrustedPeople, TrustedPublisher}
}

// IsValid reports whether n is one of the specified store names.
func (n StoreName) IsValid() bool {
	return n > StoreNameUnspecified && int(n) < len(storeNames)
}

func (n StoreName) String() string {
	if n < 0 || int(n) >= len(storeNames) {
		return "StoreName(" + strconv.Itoa(int(n)) + ")"
	}

	return storeNames[n]
}

// Set implements cli.Generic.
func (n *StoreName) Set(value string) error {
	parsed, err := ParseStoreName(value)
	if err != nil {
		return err
	}

	*n = parsed

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (n StoreName) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *StoreName) UnmarshalText(text []byte) error {
	return n.Set(string(text))
}

// ParseStoreName parses a store name, case-insensitively, from its name or numeric value.
// An empty string yields StoreNameUnspecified.
func ParseStoreName(s string) (StoreName, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return StoreNameUnspecified, nil
	}

	if i, err := strconv.Atoi(s); err == nil {
		if n := StoreName(i); n.IsValid() {
			return n, nil
		}

		return StoreNameUnspecified, fmt.Errorf("%w: %q", ErrUnknownStoreName, s)
	}

	for _, n := range StoreNames() {
		if strings.EqualFold(n.String(), s) {
			return n, nil
		}
	}

	return StoreNameUnspecified, fmt.Errorf("%w: %q", ErrUnknownStoreName, s)
}

// StoreLocation is the scope of a certificate store.
type StoreLocation int

const (
	StoreLocationUnspecified StoreLocation = iota
	CurrentUser
	LocalMachine
)

var storeLocations = [...]string{
	StoreLocationUnspecified: "",
	CurrentUser:              "CurrentUser",
	LocalMachine:             "LocalMachine",
}

// StoreLocations lists every specified store location.
func StoreLocations() []StoreLocation {
	return []StoreLocation{CurrentUser, LocalMachine}
}

// IsValid reports whether l is one of the specified store locations.
func (l StoreLocation) IsValid() bool {
	return l > StoreLocationUnspecified && int(l) < len(storeLocations)
}

func (l StoreLocation) String() string {
	if l < 0 || int(l) >= len(storeLocations) {
		return "StoreLocation(" + strconv.Itoa(int(l)) + ")"
	}

	return storeLocations[l]
}

// Set implements cli.Generic.
func (l *StoreLocation) Set(value string) error {
	parsed, err := ParseStoreLocation(value)
	if err != nil {
		return err
	}

	*l = parsed

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (l StoreLocation) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *StoreLocation) UnmarshalText(text []byte) error {
	return l.Set(string(text))
}

// ParseStoreLocation parses a store location, case-insensitively, from its name or numeric value.
// An empty string yields StoreLocationUnspecified.
func ParseStoreLocation(s string) (StoreLocation, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return StoreLocationUnspecified, nil
	}

	if i, err := strconv.Atoi(s); err == nil {
		if l := StoreLocation(i); l.IsValid() {
			return l, nil
		}

		return StoreLocationUnspecified, fmt.Errorf("%w: %q", ErrUnknownStoreLocation, s)
	}

	for _, l := range StoreLocations() {
		if strings.EqualFold(l.String(), s) {
			return l, nil
		}
	}

	return StoreLocationUnspecified, fmt.Errorf("%w: %q", ErrUnknownStoreLocation, s)
}
