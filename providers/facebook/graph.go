// Package facebook implements Facebook Login and the Graph API client that the Facebook and
// Instagram adapters share.
package facebook

import (
	"context"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-social-connect/platforms"
	"github.com/jrsteele09/go-social-connect/providers"
	"golang.org/x/oauth2"
)

const (
	DefaultAuthURL  = "https://www.facebook.com/v19.0/dialog/oauth"
	DefaultGraphURL = "https://graph.facebook.com/v19.0"
)

// Config configures a Graph client. Empty URLs select the production endpoints and a nil
// Caller.Retry selects providers.DefaultRetryPolicy.
type Config struct {
	Credentials providers.Credentials
	Scopes      []string
	AuthURL     string
	GraphURL    string
	Caller      providers.CallerOptions
}

// Graph performs the Facebook Login code exchange and Graph API reads on behalf of one
// platform. Token exchanges retry transient failures.
type Graph struct {
	platform platforms.Platform
	creds    providers.Credentials
	scopes   []string
	authURL  string
	graphURL string
	caller   *providers.Caller
}

// NewGraph creates a Graph client that reports errors and metrics as platform p.
func NewGraph(p platforms.Platform, cfg Config) *Graph {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.GraphURL == "" {
		cfg.GraphURL = DefaultGraphURL
	}
	if cfg.Caller.Retry == nil {
		cfg.Caller.Retry = providers.DefaultRetryPolicy()
	}
	return &Graph{
		platform: p,
		creds:    cfg.Credentials,
		scopes:   cfg.Scopes,
		authURL:  cfg.AuthURL,
		graphURL: strings.TrimRight(cfg.GraphURL, "/"),
		caller:   providers.NewCaller(p, cfg.Caller),
	}
}

func (g *Graph) oauthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     g.creds.ClientID,
		ClientSecret: g.creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   g.authURL,
			TokenURL:  g.graphURL + "/oauth/access_token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: providers.NormalizeRedirectURI(redirectURI),
		Scopes:      g.scopes,
	}
}

// BuildAuthURL returns the Facebook Login dialog URL.
func (g *Graph) BuildAuthURL(state, redirectURI string) (string, error) {
	if err := providers.RequireCredentials(g.platform, g.creds); err != nil {
		return "", err
	}
	return g.oauthConfig(redirectURI).AuthCodeURL(state), nil
}

// ExchangeCode trades the authorization code for a user access token.
func (g *Graph) ExchangeCode(ctx context.Context, code, redirectURI string) (*providers.TokenResult, error) {
	if err := providers.RequireCredentials(g.platform, g.creds); err != nil {
		return nil, err
	}
	return g.caller.Exchange(ctx, g.oauthConfig(redirectURI), code)
}

// Get reads a Graph API node. path is relative to the versioned Graph URL.
func (g *Graph) Get(ctx context.Context, call, path string, query url.Values, accessToken string, out interface{}) error {
	endpoint := g.graphURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return g.caller.GetJSON(ctx, call, endpoint, accessToken, out)
}

// Pages lists the pages the user manages with the requested fields.
func (g *Graph) Pages(ctx context.Context, accessToken, fields string) ([]providers.FacebookPage, error) {
	var resp struct {
		Data []providers.FacebookPage `json:"data"`
	}
	if err := g.Get(ctx, "pages", "me/accounts", url.Values{"fields": {fields}}, accessToken, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
