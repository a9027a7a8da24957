package main

import (
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/meltwater/spo-webhooks/internal/plugin"
	"github.com/meltwater/spo-webhooks/settings"
	"github.com/meltwater/spo-webhooks/test"
)

func parse(t *testing.T, args ...string) plugin.Config {
	t.Helper()

	var cfg plugin.Config

	app := cli.NewApp()
	app.Flags = flags(new(settings.StoreName), new(settings.StoreLocation))
	app.Action = func(c *cli.Context) error {
		var err error
		cfg, err = configFromContext(c)

		return err
	}

	test.Ok(t, app.Run(append([]string{"spo-webhooks"}, args...)))

	return cfg
}

func TestConfigFromFlags(t *testing.T) {
	cfg := parse(t,
		"--tenant-id", "contoso.onmicrosoft.com",
		"--client-id", "1234",
		"--certificate-store-name", "my",
		"--certificate-store-location", "CurrentUser",
		"--certificate-thumbprint", "ABCDEF0123456789",
		"--scope", "https://contoso.sharepoint.com/.default",
		"--skip-token",
	)

	test.Equals(t, settings.AzureFunctionSettings{
		TenantID:                 "contoso.onmicrosoft.com",
		ClientID:                 "1234",
		CertificateStoreName:     settings.My,
		CertificateStoreLocation: settings.CurrentUser,
		CertificateThumbprint:    "ABCDEF0123456789",
	}, cfg.Settings)
	test.Equals(t, []string{"https://contoso.sharepoint.com/.default"}, cfg.Scopes)
	test.Equals(t, true, cfg.SkipToken)
	test.Equals(t, defaultStoreRoot, cfg.CertificateStoreRoot)
	test.Equals(t, "info", cfg.LogLevel)
	test.Equals(t, "logfmt", cfg.LogFormat)
}

func TestConfigLogging(t *testing.T) {
	cfg := parse(t, "--log.level", "debug", "--log.format", "json")

	test.Equals(t, "debug", cfg.LogLevel)
	test.Equals(t, "json", cfg.LogFormat)

	t.Setenv("PLUGIN_LOG_LEVEL", "error")

	cfg = parse(t)
	test.Equals(t, "error", cfg.LogLevel)
}

func TestConfigFromEnvironment(t *testing.T) {
	t.Setenv("AzureFunctionSettings__TenantName", "contoso.onmicrosoft.com")
	t.Setenv("PLUGIN_CLIENT_ID", "5678")
	t.Setenv("CERTIFICATE_STORE_NAME", "6")
	t.Setenv("AzureFunctionSettings__CertificateStoreLocation", "LocalMachine")
	t.Setenv("CERTIFICATE_STORE_ROOT", "/tmp/certs")

	cfg := parse(t)

	test.Equals(t, "contoso.onmicrosoft.com", cfg.Settings.TenantName)
	test.Equals(t, "5678", cfg.Settings.ClientID)
	test.Equals(t, settings.Root, cfg.Settings.CertificateStoreName)
	test.Equals(t, settings.LocalMachine, cfg.Settings.CertificateStoreLocation)
	test.Equals(t, "/tmp/certs", cfg.CertificateStoreRoot)
}

func TestConfigDefaults(t *testing.T) {
	cfg := parse(t)

	test.Equals(t, settings.AzureFunctionSettings{}, cfg.Settings)
	test.Equals(t, false, cfg.SkipToken)
}

func TestConfigRejectsUnknownStore(t *testing.T) {
	app := cli.NewApp()
	app.Flags = flags(new(settings.StoreName), new(settings.StoreLocation))
	app.Action = func(*cli.Context) error { return nil }
	app.Writer = testWriter{t}
	app.ErrWriter = testWriter{t}

	err := app.Run([]string{"spo-webhooks", "--certificate-store-name", "Personal"})
	test.Assert(t, err != nil, "expected an unknown store name to be rejected")
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))

	return len(p), nil
}
