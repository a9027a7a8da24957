// Package auth acquires access tokens for the function's app registration
// using client certificate credentials.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/meltwater/spo-webhooks/certstore"
	"github.com/meltwater/spo-webhooks/settings"
)

// ErrRejected is returned when the authority rejects the credentials.
var ErrRejected = errors.New("authentication rejected")

// Authenticator acquires access tokens from a token credential.
type Authenticator struct {
	logger log.Logger
	cred   azcore.TokenCredential
	opts   options
}

// New creates an Authenticator backed by a client certificate credential.
func New(l log.Logger, s settings.AzureFunctionSettings, cert *certstore.Certificate, opts ...Option) (*Authenticator, error) {
	o := newOptions(opts)

	tenant := s.Authority()
	if tenant == "" {
		return nil, errors.New("tenant id or tenant name is required")
	}

	clientID := strings.TrimSpace(s.ClientID)
	if clientID == "" {
		return nil, errors.New("client id is required")
	}

	if cert == nil || cert.Leaf == nil {
		return nil, errors.New("certificate is required")
	}

	if cert.PrivateKey == nil {
		return nil, errors.New("certificate private key is required")
	}

	chain := cert.Chain
	if len(chain) == 0 {
		chain = append(chain, cert.Leaf)
	}

	copts := &azidentity.ClientCertificateCredentialOptions{
		SendCertificateChain: o.sendCertificateChain,
	}
	if o.authorityHost != "" {
		copts.ClientOptions.Cloud = cloud.Configuration{
			ActiveDirectoryAuthorityHost: o.authorityHost,
		}
	}

	level.Info(l).Log("msg", "using client certificate authentication", "tenant", tenant, "clientID", clientID, "thumbprint", cert.Thumbprint())

	cred, err := azidentity.NewClientCertificateCredential(tenant, clientID, chain, cert.PrivateKey, copts)
	if err != nil {
		return nil, fmt.Errorf("azure, failed to create client certificate credential, %w", err)
	}

	return &Authenticator{logger: l, cred: cred, opts: o}, nil
}

// NewWithCredential creates an Authenticator from an existing credential.
func NewWithCredential(l log.Logger, cred azcore.TokenCredential, opts ...Option) (*Authenticator, error) {
	if cred == nil {
		return nil, errors.New("credential is required")
	}

	return &Authenticator{logger: l, cred: cred, opts: newOptions(opts)}, nil
}

// Token acquires an access token for the given scopes, or the default scopes when none are given.
func (a *Authenticator) Token(ctx context.Context, scopes ...string) (azcore.AccessToken, error) {
	if len(scopes) == 0 {
		scopes = a.opts.defaultScopes
	}

	level.Debug(a.logger).Log("msg", "acquiring access token", "scopes", strings.Join(scopes, " "))

	tk, err := a.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: scopes})
	if err != nil {
		var authErr *azidentity.AuthenticationFailedError
		if errors.As(err, &authErr) {
			return azcore.AccessToken{}, fmt.Errorf("%w, %w", ErrRejected, err)
		}

		return azcore.AccessToken{}, fmt.Errorf("get token, %w", err)
	}

	level.Info(a.logger).Log("msg", "acquired access token", "expires", humanize.Time(tk.ExpiresOn))

	return tk, nil
}

func newOptions(opts []Option) options {
	o := options{defaultScopes: []string{DefaultScope}}
	for _, opt := range opts {
		opt.apply(&o)
	}

	return o
}
