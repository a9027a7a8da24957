package auth

// DefaultScope is requested when Token is called without scopes.
const DefaultScope = "https://graph.microsoft.com/.default"

type options struct {
	authorityHost        string
	sendCertificateChain bool
	defaultScopes        []string
}

// Option overrides behavior of Authenticator.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) {
	f(o)
}

// WithAuthorityHost sets the identity authority host, e.g. for sovereign clouds.
func WithAuthorityHost(host string) Option {
	return optionFunc(func(o *options) {
		o.authorityHost = host
	})
}

// WithSendCertificateChain sets whether the x5c header is sent, required for subject name/issuer auth.
func WithSendCertificateChain(b bool) Option {
	return optionFunc(func(o *options) {
		o.sendCertificateChain = b
	})
}

// WithDefaultScopes sets the scopes requested when Token is called without scopes.
func WithDefaultScopes(scopes ...string) Option {
	return optionFunc(func(o *options) {
		o.defaultScopes = scopes
	})
}
