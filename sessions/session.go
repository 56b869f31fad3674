package sessions

import (
	"time"

	"github.com/jrsteele09/go-social-connect/platforms"
)

// DefaultTokenLifetime is assumed when a provider omits expires_in.
const DefaultTokenLifetime = 24 * time.Hour

// Session is the per-user state loaded at the start of a request. Services receive it by value
// and describe their changes as a Patch; only a Store mutates persisted sessions.
type Session struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Plan      platforms.Plan `json:"plan"`
	CreatedAt time.Time      `json:"createdAt"`

	// Pending OAuth material, present between initiate and callback.
	State         string `json:"state,omitempty"`
	CodeVerifier  string `json:"codeVerifier,omitempty"`
	CodeChallenge string `json:"codeChallenge,omitempty"`

	ConnectedPlatforms map[platforms.Platform]PlatformConnection `json:"connectedPlatforms"`
}

// Account is the normalized provider identity.
type Account struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AccountTokens holds the provider tokens. ExpiresAt is in epoch milliseconds.
type AccountTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// AccountCodes snapshots the CSRF/PKCE material that established a connection.
type AccountCodes struct {
	CodeVerifier  string `json:"codeVerifier"`
	CodeChallenge string `json:"codeChallenge"`
	State         string `json:"state"`
}

// PlatformConnection is the durable record of one connected platform.
type PlatformConnection struct {
	Account       Account       `json:"account"`
	AccountTokens AccountTokens `json:"account_tokens"`
	AccountCodes  AccountCodes  `json:"account_codes"`
	ConnectedAt   int64         `json:"connectedAt,omitempty"`
}

// Pending is the CSRF/PKCE triple stored during initiate.
type Pending struct {
	State         string
	CodeVerifier  string
	CodeChallenge string
}

// IsAuthenticated reports whether the session belongs to a signed in user with a known plan.
func (s Session) IsAuthenticated() bool {
	return s.UserID != "" && s.Plan.Valid()
}

// Connection returns the connection for p, if any.
func (s Session) Connection(p platforms.Platform) (PlatformConnection, bool) {
	c, ok := s.ConnectedPlatforms[p]
	return c, ok
}

// IsConnected reports whether p has a connection record.
func (s Session) IsConnected(p platforms.Platform) bool {
	_, ok := s.ConnectedPlatforms[p]
	return ok
}

// Pending returns the pending OAuth triple.
func (s Session) Pending() Pending {
	return Pending{State: s.State, CodeVerifier: s.CodeVerifier, CodeChallenge: s.CodeChallenge}
}

// Clone returns a deep copy so callers can hand out snapshots safely.
func (s Session) Clone() Session {
	c := s
	c.ConnectedPlatforms = make(map[platforms.Platform]PlatformConnection, len(s.ConnectedPlatforms))
	for p, conn := range s.ConnectedPlatforms {
		c.ConnectedPlatforms[p] = conn
	}
	return c
}

// ExpiresAtFrom converts a provider expires_in (seconds, 0 when omitted) to epoch millis.
func ExpiresAtFrom(now time.Time, expiresIn int) int64 {
	lifetime := DefaultTokenLifetime
	if expiresIn > 0 {
		lifetime = time.Duration(expiresIn) * time.Second
	}
	return now.Add(lifetime).UnixMilli()
}

// HasValidToken reports whether the connection holds an access token that has not expired.
func (c PlatformConnection) HasValidToken(now time.Time) bool {
	return c.AccountTokens.AccessToken != "" && c.AccountTokens.ExpiresAt > now.UnixMilli()
}
