package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/kit/log/level"
	"github.com/urfave/cli/v2"

	"github.com/meltwater/spo-webhooks/certstore/filesystem"
	"github.com/meltwater/spo-webhooks/internal/logger"
	"github.com/meltwater/spo-webhooks/internal/plugin"
	"github.com/meltwater/spo-webhooks/settings"
)

const (
	defaultStoreRoot = "/etc/spo-webhooks/certificates"

	flagTenantID             = "tenant-id"
	flagTenantName           = "tenant-name"
	flagClientID             = "client-id"
	flagStoreName            = "certificate-store-name"
	flagStoreLocation        = "certificate-store-location"
	flagThumbprint           = "certificate-thumbprint"
	flagStoreRoot            = "certificate-store-root"
	flagCertificatePassword  = "certificate-password"
	flagScope                = "scope"
	flagAuthorityHost        = "authority-host"
	flagSendCertificateChain = "send-certificate-chain"
	flagSkipToken            = "skip-token"
	flagLogLevel             = "log.level"
	flagLogFormat            = "log.format"
)

var version = "0.0.0"

func main() {
	app := cli.NewApp()
	app.Name = "spo-webhooks"
	app.Usage = "resolve the SharePoint webhook function certificate and authenticate with it"
	app.Version = version
	app.Action = run
	app.Flags = flags(new(settings.StoreName), new(settings.StoreLocation))

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

// envs returns the environment variables a settings field is read from:
// the plain name, the drone plugin style name and the .NET app settings style name.
func envs(plain, field string) []string {
	return []string{plain, "PLUGIN_" + plain, "AzureFunctionSettings__" + field}
}

func flags(storeName *settings.StoreName, storeLocation *settings.StoreLocation) []cli.Flag {
	return []cli.Flag{
		// Settings
		&cli.StringFlag{
			Name:    flagTenantID,
			Usage:   "directory (tenant) id of the identity authority",
			EnvVars: envs("TENANT_ID", "TenantId"),
		},
		&cli.StringFlag{
			Name:    flagTenantName,
			Usage:   "tenant domain name, used when tenant id is not set",
			EnvVars: envs("TENANT_NAME", "TenantName"),
		},
		&cli.StringFlag{
			Name:    flagClientID,
			Usage:   "application (client) id",
			EnvVars: envs("CLIENT_ID", "ClientId"),
		},
		&cli.GenericFlag{
			Name:    flagStoreName,
			Usage:   "certificate store name (AddressBook, AuthRoot, CertificateAuthority, Disallowed, My, Root, TrustedPeople, TrustedPublisher)",
			Value:   storeName,
			EnvVars: envs("CERTIFICATE_STORE_NAME", "CertificateStoreName"),
		},
		&cli.GenericFlag{
			Name:    flagStoreLocation,
			Usage:   "certificate store location (CurrentUser, LocalMachine)",
			Value:   storeLocation,
			EnvVars: envs("CERTIFICATE_STORE_LOCATION", "CertificateStoreLocation"),
		},
		&cli.StringFlag{
			Name:    flagThumbprint,
			Usage:   "SHA-1 thumbprint of the certificate",
			EnvVars: envs("CERTIFICATE_THUMBPRINT", "CertificateThumbprint"),
		},

		// Certificate store
		&cli.StringFlag{
			Name:    flagStoreRoot,
			Usage:   "directory holding <location>/<name>/ certificate stores",
			Value:   defaultStoreRoot,
			EnvVars: []string{"CERTIFICATE_STORE_ROOT", "PLUGIN_CERTIFICATE_STORE_ROOT"},
		},
		&cli.StringFlag{
			Name:    flagCertificatePassword,
			Usage:   "password of PKCS#12 certificate files",
			EnvVars: []string{"CERTIFICATE_PASSWORD", "PLUGIN_CERTIFICATE_PASSWORD"},
		},

		// Authentication
		&cli.StringSliceFlag{
			Name:    flagScope,
			Usage:   "scope to request a token for, defaults to Microsoft Graph",
			EnvVars: []string{"SCOPES", "PLUGIN_SCOPES"},
		},
		&cli.StringFlag{
			Name:    flagAuthorityHost,
			Usage:   "identity authority host, e.g. https://login.microsoftonline.us/",
			EnvVars: []string{"AZURE_AUTHORITY_HOST", "PLUGIN_AUTHORITY_HOST"},
		},
		&cli.BoolFlag{
			Name:    flagSendCertificateChain,
			Usage:   "send the certificate chain for subject name/issuer authentication",
			EnvVars: []string{"SEND_CERTIFICATE_CHAIN", "PLUGIN_SEND_CERTIFICATE_CHAIN"},
		},
		&cli.BoolFlag{
			Name:    flagSkipToken,
			Usage:   "only resolve the certificate, do not authenticate",
			EnvVars: []string{"SKIP_TOKEN", "PLUGIN_SKIP_TOKEN"},
		},

		// Logging
		&cli.StringFlag{
			Name:    flagLogLevel,
			Usage:   "log filtering level. ('error', 'warn', 'info', 'debug')",
			Value:   logger.LogLevelInfo,
			EnvVars: []string{"LOG_LEVEL", "PLUGIN_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    flagLogFormat,
			Usage:   "log format to use. ('logfmt', 'json')",
			Value:   logger.LogFormatLogfmt,
			EnvVars: []string{"LOG_FORMAT", "PLUGIN_LOG_FORMAT"},
		},
	}
}

func configFromContext(c *cli.Context) (plugin.Config, error) {
	storeName, ok := c.Generic(flagStoreName).(*settings.StoreName)
	if !ok {
		return plugin.Config{}, errors.New("certificate store name flag is not a store name")
	}

	storeLocation, ok := c.Generic(flagStoreLocation).(*settings.StoreLocation)
	if !ok {
		return plugin.Config{}, errors.New("certificate store location flag is not a store location")
	}

	return plugin.Config{
		Settings: settings.AzureFunctionSettings{
			TenantID:                 c.String(flagTenantID),
			TenantName:               c.String(flagTenantName),
			ClientID:                 c.String(flagClientID),
			CertificateStoreName:     *storeName,
			CertificateStoreLocation: *storeLocation,
			CertificateThumbprint:    c.String(flagThumbprint),
		},
		CertificateStoreRoot: c.String(flagStoreRoot),
		CertificatePassword:  c.String(flagCertificatePassword),
		Scopes:               c.StringSlice(flagScope),
		AuthorityHost:        c.String(flagAuthorityHost),
		SendCertificateChain: c.Bool(flagSendCertificateChain),
		SkipToken:            c.Bool(flagSkipToken),
		LogLevel:             c.String(flagLogLevel),
		LogFormat:            c.String(flagLogFormat),
	}, nil
}

func run(c *cli.Context) error {
	cfg, err := configFromContext(c)

	// On error cfg is empty and the logger falls back to info level logfmt.
	l := logger.New(cfg.LogLevel, cfg.LogFormat, c.App.Name)
	if err != nil {
		level.Error(l).Log("msg", "can not read configuration", "err", err)
		return err
	}

	var opts []filesystem.Option
	if cfg.CertificatePassword != "" {
		opts = append(opts, filesystem.WithPassword([]byte(cfg.CertificatePassword)))
	}

	store, err := filesystem.New(l, cfg.CertificateStoreRoot, opts...)
	if err != nil {
		level.Error(l).Log("msg", "can not create certificate store", "err", err)
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := plugin.New(l, cfg, store).Exec(ctx); err != nil {
		level.Error(l).Log("msg", "function settings check failed", "err", err)
		return err
	}

	return nil
}
