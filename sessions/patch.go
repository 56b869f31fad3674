package sessions

import "github.com/jrsteele09/go-social-connect/platforms"

// Patch describes the changes a request makes to a session. Stores apply a patch atomically and
// only touch the fields it names, so concurrent requests on one session do not overwrite each
// other's connections.
type Patch struct {
	SetPending   *Pending
	ClearPending bool
	Upsert       map[platforms.Platform]PlatformConnection
	Remove       []platforms.Platform
}

// IsEmpty reports whether applying p would change nothing.
func (p *Patch) IsEmpty() bool {
	return p == nil || (p.SetPending == nil && !p.ClearPending && len(p.Upsert) == 0 && len(p.Remove) == 0)
}

// ApplyTo returns a copy of s with the patch applied. Pending material is cleared before it is
// set, connections are upserted before removals.
func (p *Patch) ApplyTo(s Session) Session {
	out := s.Clone()
	if p == nil {
		return out
	}

	if p.ClearPending {
		out.State, out.CodeVerifier, out.CodeChallenge = "", "", ""
	}
	if p.SetPending != nil {
		out.State = p.SetPending.State
		out.CodeVerifier = p.SetPending.CodeVerifier
		out.CodeChallenge = p.SetPending.CodeChallenge
	}
	for platform, conn := range p.Upsert {
		out.ConnectedPlatforms[platform] = conn
	}
	for _, platform := range p.Remove {
		delete(out.ConnectedPlatforms, platform)
	}
	return out
}
