package oauthstate_test

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/jrsteele09/go-social-connect/oauthstate"
	"github.com/stretchr/testify/require"
)

var (
	urlSafe      = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	verifierForm = regexp.MustCompile(`^[A-Za-z0-9\-._~]{43,128}$`)
)

func TestGenerateState_Unique(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	prefixes := make(map[string]struct{}, n)

	for i := 0; i < n; i++ {
		s, err := oauthstate.GenerateState()
		require.NoError(t, err)
		require.Regexp(t, urlSafe, s)

		// 43 base64url chars carry 256 bits
		require.GreaterOrEqual(t, len(s), 22)

		_, dup := seen[s]
		require.False(t, dup, "duplicate state %q", s)
		seen[s] = struct{}{}

		prefix := s[:16]
		_, dupPrefix := prefixes[prefix]
		require.False(t, dupPrefix, "repeated 16 char prefix %q", prefix)
		prefixes[prefix] = struct{}{}
	}
}

func TestGeneratePKCE(t *testing.T) {
	for i := 0; i < 200; i++ {
		p := oauthstate.GeneratePKCE()
		require.Regexp(t, verifierForm, p.CodeVerifier)
		require.Equal(t, oauthstate.MethodS256, p.Method)

		sum := sha256.Sum256([]byte(p.CodeVerifier))
		require.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), p.CodeChallenge)
	}
}

func TestChallengeFromVerifier_RFC7636Vector(t *testing.T) {
	// Appendix B of RFC 7636
	require.Equal(t,
		"E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM",
		oauthstate.ChallengeFromVerifier("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"),
	)
}
