package filesystem

import "strings"

// DefaultExtensions are the file extensions scanned for certificates.
var DefaultExtensions = []string{".pem", ".crt", ".cer", ".pfx", ".p12"}

type options struct {
	password   []byte
	extensions map[string]struct{}
}

// Option overrides behavior of Store.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) {
	f(o)
}

// WithPassword sets the password used to decrypt PKCS#12 files.
func WithPassword(p []byte) Option {
	return optionFunc(func(o *options) {
		o.password = p
	})
}

// WithExtensions sets the file extensions scanned for certificates.
func WithExtensions(exts ...string) Option {
	return optionFunc(func(o *options) {
		o.extensions = extensionSet(exts)
	})
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}

		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}

		set[e] = struct{}{}
	}

	return set
}
