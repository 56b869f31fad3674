package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	apperrors "github.com/jrsteele09/go-social-connect/internal/errors"
	"github.com/jrsteele09/go-social-connect/internal/metrics"
	"github.com/jrsteele09/go-social-connect/platforms"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/oauth2"
)

const (
	DefaultTimeout = 15 * time.Second

	maxResponseBytes = 1 << 20
)

// ErrMalformedResponse marks a provider response that could not be decoded.
var ErrMalformedResponse = errors.New("malformed provider response")

// StatusError is a non-2xx response from a provider API. Body is kept for logs only.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// RetryPolicy configures retries of transient failures. MaxAttempts counts the first try.
type RetryPolicy struct {
	MaxAttempts int
	WaitMin     time.Duration
	WaitMax     time.Duration
}

// DefaultRetryPolicy makes three attempts with exponential backoff of 2s then 4s.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{MaxAttempts: 3, WaitMin: 2 * time.Second, WaitMax: 8 * time.Second}
}

// BreakerSettings configures the per-platform circuit breaker.
type BreakerSettings struct {
	// ConsecutiveFailures of the unavailable kind that open the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{ConsecutiveFailures: 5, OpenTimeout: 30 * time.Second}
}

// CallerOptions configures a Caller. Zero values select the defaults.
type CallerOptions struct {
	Timeout   time.Duration
	Retry     *RetryPolicy
	Breaker   BreakerSettings
	Metrics   *metrics.Metrics
	Transport http.RoundTripper
}

// Caller performs provider HTTP calls with a timeout, optional retries of the token exchange,
// and a circuit breaker. Errors it returns are classified *apperrors.Error values.
type Caller struct {
	platform    platforms.Platform
	tokenClient *http.Client
	apiClient   *http.Client
	breaker     *gobreaker.CircuitBreaker
	metrics     *metrics.Metrics
}

// NewCaller builds the HTTP plumbing for one platform.
func NewCaller(p platforms.Platform, opts CallerOptions) *Caller {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Breaker.ConsecutiveFailures == 0 {
		opts.Breaker = DefaultBreakerSettings()
	}

	c := &Caller{
		platform:  p,
		apiClient: &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		metrics:   opts.Metrics,
	}
	c.tokenClient = c.apiClient
	if opts.Retry != nil && opts.Retry.MaxAttempts > 1 {
		c.tokenClient = newRetryingClient(p, opts.Timeout, opts.Transport, opts.Retry)
	}

	threshold := opts.Breaker.ConsecutiveFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        string(p),
		MaxRequests: 1,
		Timeout:     opts.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("platform", name).Str("from", from.String()).Str("to", to.String()).Msg("provider circuit breaker state changed")
			c.metrics.SetBreakerOpen(name, to != gobreaker.StateClosed)
		},
	})
	return c
}

// Exchange trades an authorization code for tokens using cfg.
func (c *Caller) Exchange(ctx context.Context, cfg *oauth2.Config, code string, opts ...oauth2.AuthCodeOption) (*TokenResult, error) {
	var tok *oauth2.Token
	err := c.execute(ctx, "exchange", func(ctx context.Context) error {
		var err error
		tok, err = cfg.Exchange(context.WithValue(ctx, oauth2.HTTPClient, c.tokenClient), code, opts...)
		return err
	})
	if err != nil {
		return nil, c.classify("exchange", err, fmt.Sprintf("Failed to exchange %s authorization code. Please try connecting again.", c.platform.DisplayName()))
	}
	return &TokenResult{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn(tok),
	}, nil
}

// GetJSON issues an authenticated GET and decodes the JSON response into out.
func (c *Caller) GetJSON(ctx context.Context, call, endpoint, accessToken string, out interface{}) error {
	err := c.execute(ctx, call, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.apiClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return nil
	})
	if err != nil {
		return c.classify(call, err, fmt.Sprintf("Failed to fetch %s profile. Please try connecting again.", c.platform.DisplayName()))
	}
	return nil
}

func (c *Caller) execute(ctx context.Context, call string, fn func(context.Context) error) error {
	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	c.metrics.ObserveProviderCall(string(c.platform), call, err, time.Since(start))
	return err
}

// classify turns a raw call failure into the error taxonomy, logging the raw cause.
func (c *Caller) classify(call string, err error, authMessage string) error {
	log.Warn().Err(err).Str("platform", string(c.platform)).Str("call", call).Msg("provider call failed")

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) || isTransient(err) {
		return apperrors.Wrap(err, apperrors.KindProviderUnavailable,
			fmt.Sprintf("%s is temporarily unavailable. Please try again later.", c.platform.DisplayName()))
	}
	return apperrors.Wrap(err, apperrors.KindProviderAuth, authMessage)
}

// isTransient reports whether err is an outage (5xx, timeout, transport failure) rather than a
// rejection by the provider.
func isTransient(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return retrieveErr.Response != nil && retrieveErr.Response.StatusCode >= http.StatusInternalServerError
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}
	if errors.Is(err, ErrMalformedResponse) || errors.Is(err, context.Canceled) {
		return false
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.Kind == apperrors.KindProviderUnavailable
	}
	// oauth2 reports a 2xx body without a token as a plain error
	if isMissingTokenError(err) {
		return false
	}
	return true
}

func isMissingTokenError(err error) bool {
	return err != nil && err.Error() == "oauth2: server response missing access_token"
}

// expiresIn reads the raw expires_in field, which oauth2 folds into an absolute expiry.
func expiresIn(tok *oauth2.Token) int {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func newRetryingClient(p platforms.Platform, timeout time.Duration, transport http.RoundTripper, policy *RetryPolicy) *http.Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: timeout, Transport: transport}
	rc.RetryMax = policy.MaxAttempts - 1
	rc.RetryWaitMin = policy.WaitMin
	rc.RetryWaitMax = policy.WaitMax
	rc.Backoff = cappedBackoff
	rc.CheckRetry = retryTransient
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = retryLogger{platform: string(p)}
	return rc.StandardClient()
}

// cappedBackoff honours Retry-After but never waits longer than the policy's WaitMax.
func cappedBackoff(waitMin, waitMax time.Duration, attemptNum int, resp *http.Response) time.Duration {
	return min(retryablehttp.DefaultBackoff(waitMin, waitMax, attemptNum, resp), waitMax)
}

// retryTransient retries transport failures and 5xx responses. 4xx responses, including 429,
// fail immediately.
func retryTransient(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	return resp.StatusCode >= http.StatusInternalServerError, nil
}

// retryLogger bridges retryablehttp's leveled logging into zerolog.
type retryLogger struct {
	platform string
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Error().Str("platform", l.platform).Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Info().Str("platform", l.platform).Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	log.Debug().Str("platform", l.platform).Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Warn().Str("platform", l.platform).Fields(keysAndValues).Msg(msg)
}
