// Package providers defines the capability every social platform adapter implements, the user
// data each platform returns, and the HTTP plumbing shared by the adapters.
package providers

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/jrsteele09/go-social-connect/internal/errors"
	"github.com/jrsteele09/go-social-connect/platforms"
)

// MsgMissingCodeVerifier is reported when a PKCE callback arrives without the verifier stored at
// initiate.
const MsgMissingCodeVerifier = "Missing code verifier. Please restart the connection flow."

// Adapter performs the OAuth authorization code flow against one platform.
type Adapter interface {
	Platform() platforms.Platform

	// RequiresPKCE reports whether BuildAuthURL needs a code challenge and ExchangeCode a
	// code verifier.
	RequiresPKCE() bool

	BuildAuthURL(state, redirectURI, codeChallenge string) (string, error)
	ExchangeCode(ctx context.Context, code, redirectURI, codeVerifier string) (*TokenResult, error)
	FetchProfile(ctx context.Context, accessToken string) (UserData, error)
}

// TokenResult is the outcome of a token exchange. ExpiresIn is in seconds; 0 means the provider
// did not send one.
type TokenResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// Credentials identify the OAuth application registered with a provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Configured reports whether both halves of the credentials are present.
func (c Credentials) Configured() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

// RequireCredentials fails before any network call when the application is not configured.
func RequireCredentials(p platforms.Platform, c Credentials) error {
	if !c.Configured() {
		return apperrors.ProviderAuth(fmt.Sprintf("%s OAuth credentials not configured", p.DisplayName()))
	}
	return nil
}
