package config

import "time"

const devCookieSecret = "dev-only-cookie-secret-change-me-0123456789"

// MinCookieSecretLength is the shortest accepted session cookie signing key.
const MinCookieSecretLength = 32

type SecurityConfig interface {
	GetCookieSecret() string
	GetCookieName() string
	GetSecureCookies() bool
	GetSessionTTL() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetCookieSecret signs the session id cookie. Outside DEV it must be set explicitly.
func (Security) GetCookieSecret() string {
	if (EnvVars{}).IsDev() {
		return GetEnv("COOKIE_SECRET", devCookieSecret)
	}
	return GetEnv("COOKIE_SECRET", "")
}

func (Security) GetCookieName() string {
	return GetEnv("SESSION_COOKIE_NAME", "social_connect_session")
}

func (Security) GetSecureCookies() bool {
	return GetEnvBool("SECURE_COOKIES", !(EnvVars{}).IsDev())
}

func (Security) GetSessionTTL() time.Duration {
	return GetEnvDuration("SESSION_TTL", 24*time.Hour)
}
