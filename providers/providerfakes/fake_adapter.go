// Package providerfakes provides a scripted Adapter for tests.
package providerfakes

import (
	"context"
	"net/url"
	"sync"

	apperrors "github.com/jrsteele09/go-social-connect/internal/errors"
	"github.com/jrsteele09/go-social-connect/platforms"
	"github.com/jrsteele09/go-social-connect/providers"
)

const (
	ValidCode   = "fake_auth_code"
	AccessToken = "fake_access_token"
)

var _ providers.Adapter = (*FakeAdapter)(nil)

// FakeAdapter answers from maps instead of a provider API and counts its calls.
type FakeAdapter struct {
	platform     platforms.Platform
	requiresPKCE bool

	lock         sync.Mutex
	codeToTokens map[string]*providers.TokenResult
	tokenToUser  map[string]providers.UserData

	// ExchangeErr and ProfileErr, when set, are returned instead of the scripted answers.
	ExchangeErr error
	ProfileErr  error

	ExchangeCodeCalls int
	FetchProfileCalls int
	LastRedirectURI   string
	LastCodeVerifier  string
}

// NewFakeAdapter scripts ValidCode to exchange for AccessToken, which resolves to user.
func NewFakeAdapter(p platforms.Platform, requiresPKCE bool, user providers.UserData) *FakeAdapter {
	return &FakeAdapter{
		platform:     p,
		requiresPKCE: requiresPKCE,
		codeToTokens: map[string]*providers.TokenResult{
			ValidCode: {AccessToken: AccessToken, RefreshToken: "fake_refresh_token", ExpiresIn: 3600},
		},
		tokenToUser: map[string]providers.UserData{AccessToken: user},
	}
}

// SetTokens scripts the token result for code.
func (f *FakeAdapter) SetTokens(code string, tokens *providers.TokenResult) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.codeToTokens[code] = tokens
	if _, ok := f.tokenToUser[tokens.AccessToken]; !ok {
		f.tokenToUser[tokens.AccessToken] = f.tokenToUser[AccessToken]
	}
}

func (f *FakeAdapter) Platform() platforms.Platform {
	return f.platform
}

func (f *FakeAdapter) RequiresPKCE() bool {
	return f.requiresPKCE
}

func (f *FakeAdapter) BuildAuthURL(state, redirectURI, codeChallenge string) (string, error) {
	q := url.Values{
		"client_id":     {"fake-client"},
		"redirect_uri":  {providers.NormalizeRedirectURI(redirectURI)},
		"response_type": {"code"},
		"scope":         {"profile"},
		"state":         {state},
	}
	if f.requiresPKCE {
		q.Set("code_challenge", codeChallenge)
		q.Set("code_challenge_method", "S256")
	}
	return "https://auth.example.com/" + string(f.platform) + "/authorize?" + q.Encode(), nil
}

func (f *FakeAdapter) ExchangeCode(_ context.Context, code, redirectURI, codeVerifier string) (*providers.TokenResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.ExchangeCodeCalls++
	f.LastRedirectURI = redirectURI
	f.LastCodeVerifier = codeVerifier
	if f.ExchangeErr != nil {
		return nil, f.ExchangeErr
	}

	tokens, ok := f.codeToTokens[code]
	if !ok {
		return nil, apperrors.ProviderAuth("Failed to exchange authorization code. Please try connecting again.")
	}
	return tokens, nil
}

func (f *FakeAdapter) FetchProfile(_ context.Context, accessToken string) (providers.UserData, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.FetchProfileCalls++
	if f.ProfileErr != nil {
		return nil, f.ProfileErr
	}

	user, ok := f.tokenToUser[accessToken]
	if !ok {
		return nil, apperrors.ProviderAuth("Failed to fetch profile. Please try connecting again.")
	}
	return user, nil
}
