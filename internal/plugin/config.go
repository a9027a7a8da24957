package plugin

import (
	"github.com/meltwater/spo-webhooks/settings"
)

// Config plugin-specific parameters and secrets.
type Config struct {
	Settings settings.AzureFunctionSettings

	// Certificate store
	CertificateStoreRoot string
	CertificatePassword  string

	// Authentication
	Scopes               []string
	AuthorityHost        string
	SendCertificateChain bool

	// Modes
	SkipToken bool

	LogLevel  string
	LogFormat string
}
