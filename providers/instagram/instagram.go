// Package instagram connects Instagram Business and Creator accounts, which are reached through
// Facebook Login and the Facebook Page they are linked to.
package instagram

import (
	"context"
	"net/url"

	apperrors "github.com/jrsteele09/go-social-connect/internal/errors"
	"github.com/jrsteele09/go-social-connect/platforms"
	"github.com/jrsteele09/go-social-connect/providers"
	"github.com/jrsteele09/go-social-connect/providers/facebook"
	"github.com/rs/zerolog/log"
)

const errNoBusinessAccount = "No Instagram business account found. Link an Instagram Business or Creator account to a Facebook Page you manage and try again."

var _ providers.Adapter = (*Adapter)(nil)

type Adapter struct {
	graph *facebook.Graph
}

// New creates the adapter. cfg uses the Facebook Login endpoints.
func New(cfg facebook.Config) *Adapter {
	return &Adapter{graph: facebook.NewGraph(platforms.Instagram, cfg)}
}

func (a *Adapter) Platform() platforms.Platform {
	return platforms.Instagram
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

// FetchProfile finds the first managed page exposing an Instagram business account and reads
// that account.
func (a *Adapter) FetchProfile(ctx context.Context, accessToken string) (providers.UserData, error) {
	pages, err := a.graph.Pages(ctx, accessToken, "id,name,instagram_business_account")
	if err != nil {
		return nil, err
	}

	page, igID := a.findBusinessAccount(ctx, accessToken, pages)
	if igID == "" {
		return nil, apperrors.ProviderAuth(errNoBusinessAccount)
	}

	var user providers.InstagramUser
	if err := a.graph.Get(ctx, "profile", igID, url.Values{"fields": {"id,username,name"}}, accessToken, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		user.ID = igID
	}
	user.PageID = page.ID
	user.PageName = page.Name
	return user, nil
}

// findBusinessAccount prefers the account embedded in the page listing and falls back to
// looking up each page directly.
func (a *Adapter) findBusinessAccount(ctx context.Context, accessToken string, pages []providers.FacebookPage) (providers.FacebookPage, string) {
	for _, p := range pages {
		if p.InstagramBusinessAccount != nil && p.InstagramBusinessAccount.ID != "" {
			return p, p.InstagramBusinessAccount.ID
		}
	}

	for _, p := range pages {
		var detail providers.FacebookPage
		if err := a.graph.Get(ctx, "page", p.ID, url.Values{"fields": {"instagram_business_account"}}, accessToken, &detail); err != nil {
			log.Debug().Err(err).Str("pageId", p.ID).Msg("instagram business account lookup failed")
			continue
		}
		if detail.InstagramBusinessAccount != nil && detail.InstagramBusinessAccount.ID != "" {
			return p, detail.InstagramBusinessAccount.ID
		}
	}
	return providers.FacebookPage{}, ""
}
