// Package amazon connects Amazon accounts through Login with Amazon.
package amazon

import (
	"context"

	apperrors "github.com/jrsteele09/go-social-connect/internal/errors"
	"github.com/jrsteele09/go-social-connect/platforms"
	"github.com/jrsteele09/go-social-connect/providers"
	"golang.org/x/oauth2"
)

const (
	DefaultAuthURL    = "https://www.amazon.com/ap/oa"
	DefaultTokenURL   = "https://api.amazon.com/auth/o2/token"
	DefaultProfileURL = "https://api.amazon.com/user/profile"
)

var _ providers.Adapter = (*Adapter)(nil)

// Config configures the adapter. Empty URLs select the production endpoints. Token exchanges
// are never retried.
type Config struct {
	Credentials providers.Credentials
	Scopes      []string
	AuthURL     string
	TokenURL    string
	ProfileURL  string
	Caller      providers.CallerOptions
}

type Adapter struct {
	cfg    Config
	caller *providers.Caller
}

func New(cfg Config) *Adapter {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.ProfileURL == "" {
		cfg.ProfileURL = DefaultProfileURL
	}
	cfg.Caller.Retry = nil

	return &Adapter{cfg: cfg, caller: providers.NewCaller(platforms.Amazon, cfg.Caller)}
}

func (a *Adapter) Platform() platforms.Platform {
	return platforms.Amazon
}

func (a *Adapter) RequiresPKCE() bool {
	return false
}

func (a *Adapter) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.cfg.Credentials.ClientID,
		ClientSecret: a.cfg.Credentials.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   a.cfg.AuthURL,
			TokenURL:  a.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: providers.NormalizeRedirectURI(redirectURI),
		Scopes:      a.cfg.Scopes,
	}
}

func (a *Adapter) BuildAuthURL(state, redirectURI, _ string) (string, error) {
	if err := providers.RequireCredentials(platforms.Amazon, a.cfg.Credentials); err != nil {
		return "", err
	}
	return a.oauthConfig(redirectURI).AuthCodeURL(state), nil
}

// ExchangeCode fails when the token response carries no access_token.
func (a *Adapter) ExchangeCode(ctx context.Context, code, redirectURI, _ string) (*providers.TokenResult, error) {
	if err := providers.RequireCredentials(platforms.Amazon, a.cfg.Credentials); err != nil {
		return nil, err
	}
	return a.caller.Exchange(ctx, a.oauthConfig(redirectURI), code)
}

func (a *Adapter) FetchProfile(ctx context.Context, accessToken string) (providers.UserData, error) {
	var user providers.AmazonUser
	if err := a.caller.GetJSON(ctx, "profile", a.cfg.ProfileURL, accessToken, &user); err != nil {
		return nil, err
	}
	if user.UserID == "" {
		return nil, apperrors.ProviderAuth("Amazon did not return a user profile. Please try connecting again.")
	}
	return user, nil
}
