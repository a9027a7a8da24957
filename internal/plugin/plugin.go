package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/meltwater/spo-webhooks/auth"
	"github.com/meltwater/spo-webhooks/certstore"
	"github.com/meltwater/spo-webhooks/settings"
)

type tokenSource interface {
	Token(ctx context.Context, scopes ...string) (azcore.AccessToken, error)
}

type authenticatorFunc func(log.Logger, settings.AzureFunctionSettings, *certstore.Certificate, ...auth.Option) (tokenSource, error)

// Plugin for resolving the function certificate and authenticating with it.
type Plugin struct {
	logger log.Logger

	Config Config

	store         certstore.Store
	authenticator authenticatorFunc
}

// New creates a new plugin.
func New(logger log.Logger, c Config, s certstore.Store) *Plugin {
	return &Plugin{
		logger: logger,
		Config: c,
		store:  s,
		authenticator: func(l log.Logger, cfg settings.AzureFunctionSettings, cert *certstore.Certificate, opts ...auth.Option) (tokenSource, error) {
			return auth.New(l, cfg, cert, opts...)
		},
	}
}

// Exec validates the settings, looks up the certificate and acquires a token with it.
func (p *Plugin) Exec(ctx context.Context) error {
	if p.store == nil {
		return errors.New("certificate store is required")
	}

	cfg := p.Config.Settings

	level.Debug(p.logger).Log(append([]interface{}{"msg", "function settings"}, cfg.LogValues()...)...)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate settings, %w", err)
	}

	cert, err := certstore.Lookup(ctx, p.store, cfg)
	if err != nil {
		return fmt.Errorf("lookup certificate, %w", err)
	}

	level.Info(p.logger).Log(
		"msg", "resolved certificate",
		"subject", cert.Leaf.Subject.String(),
		"thumbprint", cert.Thumbprint(),
		"source", cert.Source,
		"expires", humanize.Time(cert.Leaf.NotAfter),
	)

	if p.Config.SkipToken {
		level.Info(p.logger).Log("msg", "skipping token acquisition")
		return nil
	}

	a, err := p.authenticator(p.logger, cfg, cert, p.authOptions()...)
	if err != nil {
		return fmt.Errorf("create authenticator, %w", err)
	}

	tk, err := a.Token(ctx, p.Config.Scopes...)
	if err != nil {
		return fmt.Errorf("acquire token, %w", err)
	}

	level.Info(p.logger).Log("msg", "authenticated", "tenant", cfg.Authority(), "clientID", cfg.ClientID, "tokenExpires", humanize.Time(tk.ExpiresOn))

	return nil
}

func (p *Plugin) authOptions() []auth.Option {
	opts := []auth.Option{auth.WithSendCertificateChain(p.Config.SendCertificateChain)}
	if p.Config.AuthorityHost != "" {
		opts = append(opts, auth.WithAuthorityHost(p.Config.AuthorityHost))
	}

	return opts
}
