package facebook

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-social-connect/platforms"
	"github.com/jrsteele09/go-social-connect/providers"
	"github.com/rs/zerolog/log"
)

var _ providers.Adapter = (*Adapter)(nil)

// Adapter connects Facebook accounts.
type Adapter struct {
	graph *Graph
}

func New(cfg Config) *Adapter {
	return &Adapter{graph: NewGraph(platforms.Facebook, cfg)}
}

func (a *Adapter) Platform() platforms.Platform {
	return platforms.Facebook
}

func (a *Adapter) RequiresPKCE() bool {
	return false
}

func (a *Adapter) BuildAuthURL(state, redirectURI, _ string) (string, error) {
	return a.graph.BuildAuthURL(state, redirectURI)
}

func (a *Adapter) ExchangeCode(ctx context.Context, code, redirectURI, _ string) (*providers.TokenResult, error) {
	return a.graph.ExchangeCode(ctx, code, redirectURI)
}

// FetchProfile reads the user and the pages they manage. A failed page listing still returns
// the profile.
func (a *Adapter) FetchProfile(ctx context.Context, accessToken string) (providers.UserData, error) {
	var user providers.FacebookUser
	if err := a.graph.Get(ctx, "profile", "me", url.Values{"fields": {"id,name,email"}}, accessToken, &user); err != nil {
		return nil, err
	}

	pages, err := a.graph.Pages(ctx, accessToken, "id,name")
	if err != nil {
		log.Warn().Err(err).Str("facebookUserId", user.ID).Msg("failed to list facebook pages")
	}
	user.Pages = pages
	return user, nil
}
