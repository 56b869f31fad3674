package config

import "time"

// ProviderCredentials identify an OAuth application registered with a provider.
type ProviderCredentials struct {
	ClientID     string
	ClientSecret string
}

type OAuthConfig interface {
	GetFacebookCredentials() ProviderCredentials
	GetInstagramCredentials() ProviderCredentials
	GetTwitterCredentials() ProviderCredentials
	GetAmazonCredentials() ProviderCredentials
	GetProviderTimeout() time.Duration
	GetFacebookRetryAttempts() int
	GetFacebookRetryBaseDelay() time.Duration
	GetBreakerFailureThreshold() int
	GetBreakerOpenTimeout() time.Duration
	GetStrictProviderErrors() bool
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetFacebookCredentials() ProviderCredentials {
	return ProviderCredentials{
		ClientID:     GetEnv("FACEBOOK_APP_ID", ""),
		ClientSecret: GetEnv("FACEBOOK_APP_SECRET", ""),
	}
}

// GetInstagramCredentials falls back to the Facebook app, since Instagram business accounts
// are authorized through Facebook Login.
func (o OAuth) GetInstagramCredentials() ProviderCredentials {
	fb := o.GetFacebookCredentials()
	return ProviderCredentials{
		ClientID:     GetEnv("INSTAGRAM_CLIENT_ID", fb.ClientID),
		ClientSecret: GetEnv("INSTAGRAM_CLIENT_SECRET", fb.ClientSecret),
	}
}

func (OAuth) GetTwitterCredentials() ProviderCredentials {
	return ProviderCredentials{
		ClientID:     GetEnv("TWITTER_CLIENT_ID", ""),
		ClientSecret: GetEnv("TWITTER_CLIENT_SECRET", ""),
	}
}

func (OAuth) GetAmazonCredentials() ProviderCredentials {
	return ProviderCredentials{
		ClientID:     GetEnv("AMAZON_CLIENT_ID", ""),
		ClientSecret: GetEnv("AMAZON_CLIENT_SECRET", ""),
	}
}

// GetProviderTimeout bounds each provider HTTP attempt.
func (OAuth) GetProviderTimeout() time.Duration {
	return GetEnvDuration("PROVIDER_TIMEOUT", 15*time.Second)
}

// GetFacebookRetryAttempts counts the first attempt.
func (OAuth) GetFacebookRetryAttempts() int {
	return GetEnvPositiveInt("FACEBOOK_RETRY_ATTEMPTS", 3)
}

func (OAuth) GetFacebookRetryBaseDelay() time.Duration {
	return GetEnvDuration("FACEBOOK_RETRY_BASE_DELAY", 2*time.Second)
}

func (OAuth) GetBreakerFailureThreshold() int {
	return GetEnvPositiveInt("PROVIDER_BREAKER_FAILURES", 5)
}

func (OAuth) GetBreakerOpenTimeout() time.Duration {
	return GetEnvDuration("PROVIDER_BREAKER_OPEN_TIMEOUT", 30*time.Second)
}

// GetStrictProviderErrors reports provider outages as 502 instead of 400.
func (OAuth) GetStrictProviderErrors() bool {
	return GetEnvBool("STRICT_PROVIDER_ERRORS", false)
}
