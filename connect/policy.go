package connect

import (
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/go-social-connect/internal/errors"
	"github.com/jrsteele09/go-social-connect/platforms"
	"github.com/jrsteele09/go-social-connect/sessions"
)

const msgFreemiumCap = "Freemium plan allows only one platform connection. Upgrade to premium to connect multiple platforms."

// ConnectedPlatform is the status of one platform within a session.
type ConnectedPlatform struct {
	Platform        platforms.Platform `json:"platform"`
	IsConnected     bool               `json:"isConnected"`
	Username        string             `json:"username,omitempty"`
	AccountID       string             `json:"accountId,omitempty"`
	HasValidToken   bool               `json:"hasValidToken"`
	RequiresPremium bool               `json:"requiresPremium"`
}

// Policy decides which connections a plan permits. Its methods are pure functions of their
// arguments and the read-only catalog; violations are returned as errors, never panics.
//
// A plan downgrade does not prune connections made under the previous plan; the freemium cap
// only applies when a new connection is started.
type Policy struct {
	catalog *platforms.Catalog
}

func NewPolicy(catalog *platforms.Catalog) *Policy {
	if catalog == nil {
		catalog = platforms.DefaultCatalog()
	}
	return &Policy{catalog: catalog}
}

// ValidateAdditionalConnection returns a PolicyDenied error when plan may not add platform to
// the session.
func (p *Policy) ValidateAdditionalConnection(platform platforms.Platform, plan platforms.Plan, sess sessions.Session) error {
	if p.catalog.RequiresPremium(platform) && !plan.IsPremium() {
		return apperrors.PolicyDenied(fmt.Sprintf("%s connection requires a premium subscription", platform.DisplayName()))
	}
	if sess.IsConnected(platform) {
		return apperrors.PolicyDenied(fmt.Sprintf("%s is already connected", platform.DisplayName()))
	}
	if !p.IsMultiPlatformAllowed(plan) && p.ConnectedPlatformCount(sess) >= 1 {
		return apperrors.PolicyDenied(msgFreemiumCap)
	}
	return nil
}

// AvailablePlatforms reports every supported platform with its connection state.
func (p *Policy) AvailablePlatforms(plan platforms.Plan, sess sessions.Session, now time.Time) []ConnectedPlatform {
	out := make([]ConnectedPlatform, 0, len(platforms.All))
	for _, platform := range platforms.All {
		cp := ConnectedPlatform{
			Platform:        platform,
			RequiresPremium: p.catalog.RequiresPremium(platform),
		}
		if conn, ok := sess.Connection(platform); ok {
			cp.IsConnected = true
			cp.Username = conn.Account.Username
			cp.AccountID = conn.Account.UserID
			cp.HasValidToken = conn.HasValidToken(now)
		}
		out = append(out, cp)
	}
	return out
}

func (p *Policy) ConnectedPlatformCount(sess sessions.Session) int {
	count := 0
	for _, platform := range platforms.All {
		if sess.IsConnected(platform) {
			count++
		}
	}
	return count
}

func (p *Policy) IsMultiPlatformAllowed(plan platforms.Plan) bool {
	return plan.IsPremium()
}

// PremiumLockedPlatforms lists the platforms plan cannot connect.
func (p *Policy) PremiumLockedPlatforms(plan platforms.Plan) []platforms.Platform {
	if plan.IsPremium() {
		return []platforms.Platform{}
	}
	return p.catalog.Gated()
}

func (p *Policy) PlatformRequirements(platform platforms.Platform) platforms.Requirements {
	return p.catalog.Requirements(platform)
}
