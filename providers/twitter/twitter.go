// Package twitter connects Twitter (X) accounts using OAuth 2.0 with PKCE.
package twitter

import (
	"context"
	"strings"

	apperrors "github.com/jrsteele09/go-social-connect/internal/errors"
	"github.com/jrsteele09/go-social-connect/oauthstate"
	"github.com/jrsteele09/go-social-connect/platforms"
	"github.com/jrsteele09/go-social-connect/providers"
	"golang.org/x/oauth2"
)

const (
	DefaultAuthURL  = "https://twitter.com/i/oauth2/authorize"
	DefaultTokenURL = "https://api.twitter.com/2/oauth2/token"
	DefaultAPIURL   = "https://api.twitter.com/2"
)

var _ providers.Adapter = (*Adapter)(nil)

// Config configures the adapter. Empty URLs select the production endpoints. Token exchanges
// are never retried.
type Config struct {
	Credentials providers.Credentials
	Scopes      []string
	AuthURL     string
	TokenURL    string
	APIURL      string
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
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.Caller.Retry = nil

	return &Adapter{cfg: cfg, caller: providers.NewCaller(platforms.Twitter, cfg.Caller)}
}

func (a *Adapter) Platform() platforms.Platform {
	return platforms.Twitter
}

func (a *Adapter) RequiresPKCE() bool {
	return true
}

// oauthConfig uses HTTP Basic client authentication, as Twitter confidential clients must.
func (a *Adapter) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.cfg.Credentials.ClientID,
		ClientSecret: a.cfg.Credentials.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   a.cfg.AuthURL,
			TokenURL:  a.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
		RedirectURL: providers.NormalizeRedirectURI(redirectURI),
		Scopes:      a.cfg.Scopes,
	}
}

func (a *Adapter) BuildAuthURL(state, redirectURI, codeChallenge string) (string, error) {
	if err := providers.RequireCredentials(platforms.Twitter, a.cfg.Credentials); err != nil {
		return "", err
	}
	if codeChallenge == "" {
		return "", apperrors.New(apperrors.KindInternal, "twitter authorization requires a PKCE code challenge")
	}
	return a.oauthConfig(redirectURI).AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", oauthstate.MethodS256),
	), nil
}

func (a *Adapter) ExchangeCode(ctx context.Context, code, redirectURI, codeVerifier string) (*providers.TokenResult, error) {
	if err := providers.RequireCredentials(platforms.Twitter, a.cfg.Credentials); err != nil {
		return nil, err
	}
	if codeVerifier == "" {
		return nil, apperrors.ProviderAuth(providers.MsgMissingCodeVerifier)
	}
	return a.caller.Exchange(ctx, a.oauthConfig(redirectURI), code,
		oauth2.VerifierOption(codeVerifier),
		oauth2.SetAuthURLParam("client_id", a.cfg.Credentials.ClientID),
	)
}

func (a *Adapter) FetchProfile(ctx context.Context, accessToken string) (providers.UserData, error) {
	var resp struct {
		Data providers.TwitterUser `json:"data"`
	}
	if err := a.caller.GetJSON(ctx, "profile", a.cfg.APIURL+"/users/me", accessToken, &resp); err != nil {
		return nil, err
	}
	if resp.Data.ID == "" {
		return nil, apperrors.ProviderAuth("Twitter did not return a user profile. Please try connecting again.")
	}
	return resp.Data, nil
}
