package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-social-connect/connect"
	"github.com/jrsteele09/go-social-connect/internal/config"
	"github.com/jrsteele09/go-social-connect/internal/metrics"
	"github.com/jrsteele09/go-social-connect/platforms"
	"github.com/jrsteele09/go-social-connect/providers"
	"github.com/jrsteele09/go-social-connect/providers/amazon"
	"github.com/jrsteele09/go-social-connect/providers/facebook"
	"github.com/jrsteele09/go-social-connect/providers/instagram"
	"github.com/jrsteele09/go-social-connect/providers/twitter"
	"github.com/jrsteele09/go-social-connect/server"
	"github.com/jrsteele09/go-social-connect/sessions"
	"github.com/jrsteele09/go-social-connect/sessions/memstore"
	"github.com/jrsteele09/go-social-connect/sessions/redisstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// memoryCleanupInterval is how often the in-memory store purges expired sessions.
const memoryCleanupInterval = 10 * time.Minute

type app struct {
	server  *server.Server
	closers []func() error
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			log.Err(err).Msg("failed to close resource")
		}
	}
}

func newApp(c config.Config) (*app, error) {
	catalog, err := platforms.LoadCatalog(c.GetPlatformCatalogFile())
	if err != nil {
		return nil, err
	}

	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("[newApp] metrics: %w", err)
	}

	svc, err := connect.NewService(newRegistry(c, catalog, m), connect.NewPolicy(catalog), connect.WithMetrics(m))
	if err != nil {
		return nil, fmt.Errorf("[newApp] %w", err)
	}

	a := &app{}
	store, err := a.newSessionStore(c)
	if err != nil {
		return nil, err
	}

	srv, err := server.New(c, svc, store, m)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.server = srv
	return a, nil
}

// newRegistry builds the live provider adapters. Unconfigured credentials are reported at
// callback time so the service still starts with a partial set.
func newRegistry(c config.OAuthConfig, catalog *platforms.Catalog, m *metrics.Metrics) *providers.Registry {
	callerOpts := func(retry *providers.RetryPolicy) providers.CallerOptions {
		return providers.CallerOptions{
			Timeout: c.GetProviderTimeout(),
			Retry:   retry,
			Breaker: providers.BreakerSettings{
				ConsecutiveFailures: uint32(c.GetBreakerFailureThreshold()),
				OpenTimeout:         c.GetBreakerOpenTimeout(),
			},
			Metrics: m,
		}
	}
	graphRetry := func() *providers.RetryPolicy {
		base := c.GetFacebookRetryBaseDelay()
		return &providers.RetryPolicy{
			MaxAttempts: c.GetFacebookRetryAttempts(),
			WaitMin:     base,
			WaitMax:     base * 4,
		}
	}

	fb := c.GetFacebookCredentials()
	ig := c.GetInstagramCredentials()
	tw := c.GetTwitterCredentials()
	amzn := c.GetAmazonCredentials()

	for _, p := range []struct {
		platform platforms.Platform
		creds    config.ProviderCredentials
	}{
		{platforms.Facebook, fb}, {platforms.Instagram, ig}, {platforms.Twitter, tw}, {platforms.Amazon, amzn},
	} {
		if p.creds.ClientID == "" || p.creds.ClientSecret == "" {
			log.Warn().Str("platform", string(p.platform)).Msg("oauth credentials not configured")
		}
	}

	return providers.NewRegistry(
		facebook.New(facebook.Config{
			Credentials: providers.Credentials(fb),
			Scopes:      catalog.Scopes(platforms.Facebook),
			Caller:      callerOpts(graphRetry()),
		}),
		instagram.New(facebook.Config{
			Credentials: providers.Credentials(ig),
			Scopes:      catalog.Scopes(platforms.Instagram),
			Caller:      callerOpts(graphRetry()),
		}),
		twitter.New(twitter.Config{
			Credentials: providers.Credentials(tw),
			Scopes:      catalog.Scopes(platforms.Twitter),
			Caller:      callerOpts(nil),
		}),
		amazon.New(amazon.Config{
			Credentials: providers.Credentials(amzn),
			Scopes:      catalog.Scopes(platforms.Amazon),
			Caller:      callerOpts(nil),
		}),
	)
}

func (a *app) newSessionStore(c config.Config) (sessions.Store, error) {
	switch c.GetSessionBackend() {
	case config.SessionBackendMemory:
		log.Info().Msg("using in-memory session store")
		return memstore.New(c.GetSessionTTL(), memoryCleanupInterval), nil

	case config.SessionBackendRedis:
		opts, err := redis.ParseURL(c.GetRedisURL())
		if err != nil {
			return nil, fmt.Errorf("[newSessionStore] invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		a.closers = append(a.closers, client.Close)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("[newSessionStore] redis ping: %w", err)
		}
		log.Info().Str("addr", opts.Addr).Msg("using redis session store")
		return redisstore.New(client, c.GetRedisKeyPrefix(), c.GetSessionTTL()), nil
	}
	return nil, fmt.Errorf("[newSessionStore] unknown SESSION_BACKEND %q", c.GetSessionBackend())
}
