// Package oauthstate generates the anti-CSRF state and PKCE material used by OAuth flows.
package oauthstate

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
)

// stateBytes gives 256 bits of entropy, encoded as 43 base64url characters.
const stateBytes = 32

// MethodS256 is the only PKCE challenge method issued.
const MethodS256 = "S256"

// PKCE holds a code_verifier and its S256 code_challenge (RFC 7636).
type PKCE struct {
	CodeVerifier  string
	CodeChallenge string
	Method        string
}

// GenerateState returns a URL-safe random token suitable as an OAuth state parameter.
func GenerateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GeneratePKCE returns a fresh verifier and S256 challenge pair.
func GeneratePKCE() PKCE {
	verifier := oauth2.GenerateVerifier()
	return PKCE{
		CodeVerifier:  verifier,
		CodeChallenge: ChallengeFromVerifier(verifier),
		Method:        MethodS256,
	}
}

// ChallengeFromVerifier computes base64url(sha256(verifier)).
func ChallengeFromVerifier(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}
