package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/go-kit/kit/log"

	"github.com/meltwater/spo-webhooks/certstore"
	"github.com/meltwater/spo-webhooks/settings"
	"github.com/meltwater/spo-webhooks/test"
)

type fakeCredential struct {
	scopes []string
	token  azcore.AccessToken
	err    error
}

func (f *fakeCredential) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	f.scopes = opts.Scopes

	return f.token, f.err
}

func testSettings() settings.AzureFunctionSettings {
	return settings.AzureFunctionSettings{
		TenantName:               "contoso.onmicrosoft.com",
		ClientID:                 "00000000-0000-0000-0000-000000000001",
		CertificateStoreName:     settings.My,
		CertificateStoreLocation: settings.CurrentUser,
	}
}

func TestNew(t *testing.T) {
	leaf, key, _ := test.ValidCertificate(t, "spo-webhooks")
	cert := &certstore.Certificate{Leaf: leaf, PrivateKey: key}

	a, err := New(log.NewNopLogger(), testSettings(), cert, WithSendCertificateChain(true), WithAuthorityHost("https://login.microsoftonline.us/"))
	test.Ok(t, err)
	test.Assert(t, a.cred != nil, "expected a credential")
	test.Equals(t, []string{DefaultScope}, a.opts.defaultScopes)
	test.Equals(t, true, a.opts.sendCertificateChain)
}

func TestNewRejectsIncompleteInput(t *testing.T) {
	leaf, key, _ := test.ValidCertificate(t, "spo-webhooks")

	for _, tc := range []struct {
		name     string
		settings func() settings.AzureFunctionSettings
		cert     *certstore.Certificate
	}{
		{
			name:     "no tenant",
			settings: func() settings.AzureFunctionSettings { s := testSettings(); s.TenantName = ""; return s },
			cert:     &certstore.Certificate{Leaf: leaf, PrivateKey: key},
		},
		{
			name:     "no client",
			settings: func() settings.AzureFunctionSettings { s := testSettings(); s.ClientID = " "; return s },
			cert:     &certstore.Certificate{Leaf: leaf, PrivateKey: key},
		},
		{
			name:     "no certificate",
			settings: testSettings,
		},
		{
			name:     "no private key",
			settings: testSettings,
			cert:     &certstore.Certificate{Leaf: leaf},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(log.NewNopLogger(), tc.settings(), tc.cert)
			test.Assert(t, err != nil, "expected an error")
		})
	}
}

func TestToken(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	cred := &fakeCredential{token: azcore.AccessToken{Token: "secret", ExpiresOn: expires}}

	a, err := NewWithCredential(log.NewNopLogger(), cred)
	test.Ok(t, err)

	tk, err := a.Token(context.Background())
	test.Ok(t, err)
	test.Equals(t, "secret", tk.Token)
	test.Equals(t, []string{DefaultScope}, cred.scopes)

	_, err = a.Token(context.Background(), "https://contoso.sharepoint.com/.default")
	test.Ok(t, err)
	test.Equals(t, []string{"https://contoso.sharepoint.com/.default"}, cred.scopes)

	a, err = NewWithCredential(log.NewNopLogger(), cred, WithDefaultScopes("api://custom/.default"))
	test.Ok(t, err)

	_, err = a.Token(context.Background())
	test.Ok(t, err)
	test.Equals(t, []string{"api://custom/.default"}, cred.scopes)
}

func TestTokenErrors(t *testing.T) {
	_, err := NewWithCredential(log.NewNopLogger(), nil)
	test.Assert(t, err != nil, "expected an error for a nil credential")

	rejected, err := NewWithCredential(log.NewNopLogger(), &fakeCredential{err: &azidentity.AuthenticationFailedError{}})
	test.Ok(t, err)

	_, err = rejected.Token(context.Background())
	test.Expected(t, err, ErrRejected)

	errNetwork := errors.New("dial tcp: connection refused")

	failing, err := NewWithCredential(log.NewNopLogger(), &fakeCredential{err: errNetwork})
	test.Ok(t, err)

	_, err = failing.Token(context.Background())
	test.Expected(t, err, errNetwork)
	test.Assert(t, !errors.Is(err, ErrRejected), "expected a non-rejection error, got %v", err)
}
