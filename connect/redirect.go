package connect

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/go-social-connect/platforms"
	"github.com/jrsteele09/go-social-connect/providers"
)

// CallbackPath is where providers redirect the browser after authorization.
const CallbackPath = "/api/auth/oauth/callback"

// RedirectURI builds the callback URI registered with providers. Initiate and callback must
// derive the same value from the same base.
func RedirectURI(base string, p platforms.Platform) string {
	q := url.Values{"platform": {string(p)}}
	return providers.NormalizeRedirectURI(strings.TrimRight(base, "/") + CallbackPath + "?" + q.Encode())
}
