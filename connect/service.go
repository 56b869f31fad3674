// Package connect enforces the connection policy and runs the initiate, callback and disconnect
// steps of the OAuth flow. Services take a session snapshot and return the patch to apply; they
// never write sessions themselves.
package connect

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/go-social-connect/internal/errors"
	"github.com/jrsteele09/go-social-connect/internal/metrics"
	"github.com/jrsteele09/go-social-connect/oauthstate"
	"github.com/jrsteele09/go-social-connect/platforms"
	"github.com/jrsteele09/go-social-connect/providers"
	"github.com/jrsteele09/go-social-connect/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	msgAuthRequired     = "Authentication required"
	msgPlatformRequired = "Platform parameter is required"
	msgMissingCallback  = "Missing required OAuth callback parameters"
	msgInvalidState     = "Invalid OAuth state. Please restart the connection flow."

	unknownPlatformLabel = "unknown"
)

type InitiateRequest struct {
	Platform string
	// RedirectBase is the scheme and host the browser used to reach the service.
	RedirectBase string
}

type InitiateResult struct {
	AuthURL         string             `json:"authUrl"`
	Platform        platforms.Platform `json:"platform"`
	RequiresPremium bool               `json:"requiresPremium"`
}

type CallbackRequest struct {
	Platform         string
	Code             string
	State            string
	Error            string
	ErrorDescription string
	RedirectBase     string
}

type CallbackResult struct {
	Platform  platforms.Platform `json:"platform"`
	Connected bool               `json:"connected"`
	UserData  sessions.Account   `json:"userData"`
	Message   string             `json:"message"`
}

type DisconnectResult struct {
	Platform     platforms.Platform `json:"platform"`
	Disconnected bool               `json:"disconnected"`
	Message      string             `json:"message"`
}

type StatusResult struct {
	UserPlan               platforms.Plan                                `json:"userPlan"`
	AvailablePlatforms     []ConnectedPlatform                           `json:"availablePlatforms"`
	ConnectedCount         int                                           `json:"connectedCount"`
	IsMultiPlatformAllowed bool                                          `json:"isMultiPlatformAllowed"`
	PremiumLockedPlatforms []platforms.Platform                          `json:"premiumLockedPlatforms"`
	PlatformRequirements   map[platforms.Platform]platforms.Requirements `json:"platformRequirements"`
}

// Service orchestrates OAuth connections across the registered providers.
type Service struct {
	registry *providers.Registry
	policy   *Policy
	metrics  *metrics.Metrics
	nowTime  func() time.Time
}

// ServiceOption modifies the Service.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithMetrics records flow outcomes.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates the orchestrator.
func NewService(registry *providers.Registry, policy *Policy, options ...ServiceOption) (*Service, error) {
	if registry == nil {
		return nil, errors.New("[NewService] registry is required")
	}
	if policy == nil {
		return nil, errors.New("[NewService] policy is required")
	}

	s := &Service{
		registry: registry,
		policy:   policy,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Policy returns the policy the service enforces.
func (s *Service) Policy() *Policy {
	return s.policy
}

// Initiate starts a connection: it checks the policy, issues fresh state (and PKCE material when
// the provider needs it) and returns the provider authorization URL. The returned patch replaces
// any pending values.
func (s *Service) Initiate(_ context.Context, sess sessions.Session, req InitiateRequest) (*InitiateResult, *sessions.Patch, error) {
	platform, adapter, err := s.authorize(sess, req.Platform)
	if err != nil {
		s.outcome("initiate", req.Platform, err)
		return nil, nil, err
	}

	if err := s.policy.ValidateAdditionalConnection(platform, sess.Plan, sess); err != nil {
		s.outcome("initiate", string(platform), err)
		return nil, nil, err
	}

	state, err := oauthstate.GenerateState()
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.KindInternal, "failed to generate state")
	}
	pending := sessions.Pending{State: state}
	if adapter.RequiresPKCE() {
		pkce := oauthstate.GeneratePKCE()
		pending.CodeVerifier = pkce.CodeVerifier
		pending.CodeChallenge = pkce.CodeChallenge
	}

	authURL, err := adapter.BuildAuthURL(state, RedirectURI(req.RedirectBase, platform), pending.CodeChallenge)
	if err != nil {
		s.outcome("initiate", string(platform), err)
		return nil, nil, err
	}

	s.outcome("initiate", string(platform), nil)
	result := &InitiateResult{
		AuthURL:         authURL,
		Platform:        platform,
		RequiresPremium: s.policy.catalog.RequiresPremium(platform),
	}
	return result, &sessions.Patch{SetPending: &pending}, nil
}

// Callback completes a connection. A nil patch means the session must not change; every
// failure after the state check clears the pending values and leaves existing connections as
// they were.
func (s *Service) Callback(ctx context.Context, sess sessions.Session, req CallbackRequest) (*CallbackResult, *sessions.Patch, error) {
	if !sess.IsAuthenticated() {
		return nil, nil, apperrors.AuthenticationRequired(msgAuthRequired)
	}

	if req.Error != "" {
		msg := "OAuth authorization failed: " + req.Error
		if req.ErrorDescription != "" {
			msg += " - " + req.ErrorDescription
		}
		err := apperrors.Validation(msg)
		s.outcome("callback", req.Platform, err)
		return nil, nil, err
	}

	if req.Platform == "" || req.Code == "" || req.State == "" {
		return nil, nil, apperrors.Validation(msgMissingCallback)
	}
	platform, adapter, err := s.lookup(req.Platform)
	if err != nil {
		return nil, nil, err
	}

	clearPending := &sessions.Patch{ClearPending: true}
	if sess.State == "" || subtle.ConstantTimeCompare([]byte(sess.State), []byte(req.State)) != 1 {
		log.Warn().
			Str("userId", sess.UserID).
			Str("platform", string(platform)).
			Str("expectedState", sess.State).
			Str("receivedState", req.State).
			Msg("oauth state mismatch")
		err := apperrors.CsrfViolation(msgInvalidState)
		s.outcome("callback", string(platform), err)
		return nil, clearPending, err
	}

	account, tokens, err := s.connect(ctx, sess, platform, adapter, req)
	if err != nil {
		log.Error().Err(err).Str("userId", sess.UserID).Str("platform", string(platform)).Msg("oauth callback failed")
		s.outcome("callback", string(platform), err)
		if apperrors.KindOf(err) == apperrors.KindInternal {
			err = apperrors.Wrap(err, apperrors.KindInternal, "oauth callback failed")
		}
		return nil, clearPending, err
	}

	now := s.nowTime()
	conn := sessions.PlatformConnection{
		Account: account,
		AccountTokens: sessions.AccountTokens{
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			ExpiresAt:    sessions.ExpiresAtFrom(now, tokens.ExpiresIn),
		},
		AccountCodes: sessions.AccountCodes{
			CodeVerifier:  sess.CodeVerifier,
			CodeChallenge: sess.CodeChallenge,
			State:         sess.State,
		},
		ConnectedAt: now.UnixMilli(),
	}

	s.outcome("callback", string(platform), nil)
	log.Info().Str("userId", sess.UserID).Str("platform", string(platform)).Str("accountId", account.UserID).Msg("platform connected")
	result := &CallbackResult{
		Platform:  platform,
		Connected: true,
		UserData:  account,
		Message:   fmt.Sprintf("Successfully connected to %s", platform.DisplayName()),
	}
	patch := &sessions.Patch{
		ClearPending: true,
		Upsert:       map[platforms.Platform]sessions.PlatformConnection{platform: conn},
	}
	return result, patch, nil
}

// connect runs the provider exchange and profile fetch.
func (s *Service) connect(ctx context.Context, sess sessions.Session, platform platforms.Platform, adapter providers.Adapter, req CallbackRequest) (sessions.Account, *providers.TokenResult, error) {
	if adapter.RequiresPKCE() && sess.CodeVerifier == "" {
		return sessions.Account{}, nil, apperrors.ProviderAuth(providers.MsgMissingCodeVerifier)
	}
	if s.policy.catalog.RequiresPremium(platform) && !sess.Plan.IsPremium() {
		return sessions.Account{}, nil, apperrors.ProviderAuth(fmt.Sprintf("%s connection requires a premium subscription", platform.DisplayName()))
	}

	redirectURI := RedirectURI(req.RedirectBase, platform)
	tokens, err := adapter.ExchangeCode(ctx, req.Code, redirectURI, sess.CodeVerifier)
	if err != nil {
		return sessions.Account{}, nil, err
	}
	if tokens == nil || tokens.AccessToken == "" {
		return sessions.Account{}, nil, apperrors.ProviderAuth(fmt.Sprintf("%s did not return an access token", platform.DisplayName()))
	}

	user, err := adapter.FetchProfile(ctx, tokens.AccessToken)
	if err != nil {
		return sessions.Account{}, nil, err
	}
	return providers.Normalize(user), tokens, nil
}

// Disconnect removes a connected platform from the session.
func (s *Service) Disconnect(_ context.Context, sess sessions.Session, platformName string) (*DisconnectResult, *sessions.Patch, error) {
	if !sess.IsAuthenticated() {
		return nil, nil, apperrors.AuthenticationRequired(msgAuthRequired)
	}
	if platformName == "" {
		return nil, nil, apperrors.Validation(msgPlatformRequired)
	}
	platform, err := platforms.Parse(platformName)
	if err != nil {
		return nil, nil, apperrors.Validation(fmt.Sprintf("Unsupported platform: %s", platformName))
	}
	if !sess.IsConnected(platform) {
		return nil, nil, apperrors.Validation(fmt.Sprintf("%s is not connected", platform.DisplayName()))
	}

	s.outcome("disconnect", string(platform), nil)
	result := &DisconnectResult{
		Platform:     platform,
		Disconnected: true,
		Message:      fmt.Sprintf("Successfully disconnected from %s", platform.DisplayName()),
	}
	return result, &sessions.Patch{Remove: []platforms.Platform{platform}}, nil
}

// Status reports the session's connections and what its plan permits.
func (s *Service) Status(_ context.Context, sess sessions.Session) (*StatusResult, error) {
	if !sess.IsAuthenticated() {
		return nil, apperrors.AuthenticationRequired(msgAuthRequired)
	}

	requirements := make(map[platforms.Platform]platforms.Requirements, len(platforms.All))
	for _, p := range platforms.All {
		requirements[p] = s.policy.PlatformRequirements(p)
	}
	return &StatusResult{
		UserPlan:               sess.Plan,
		AvailablePlatforms:     s.policy.AvailablePlatforms(sess.Plan, sess, s.nowTime()),
		ConnectedCount:         s.policy.ConnectedPlatformCount(sess),
		IsMultiPlatformAllowed: s.policy.IsMultiPlatformAllowed(sess.Plan),
		PremiumLockedPlatforms: s.policy.PremiumLockedPlatforms(sess.Plan),
		PlatformRequirements:   requirements,
	}, nil
}

// authorize checks the session and resolves the requested platform.
func (s *Service) authorize(sess sessions.Session, name string) (platforms.Platform, providers.Adapter, error) {
	if !sess.IsAuthenticated() {
		return "", nil, apperrors.AuthenticationRequired(msgAuthRequired)
	}
	if name == "" {
		return "", nil, apperrors.Validation(msgPlatformRequired)
	}
	return s.lookup(name)
}

func (s *Service) lookup(name string) (platforms.Platform, providers.Adapter, error) {
	platform, err := platforms.Parse(name)
	if err != nil {
		return "", nil, apperrors.Validation(fmt.Sprintf("Unsupported platform: %s", name))
	}
	adapter, ok := s.registry.Adapter(platform)
	if !ok {
		return "", nil, apperrors.Validation(fmt.Sprintf("Unsupported platform: %s", name))
	}
	return platform, adapter, nil
}

// outcome records a flow result. Unrecognised platform names share one label so request input
// cannot grow the series count.
func (s *Service) outcome(operation, platform string, err error) {
	label := unknownPlatformLabel
	if p, parseErr := platforms.Parse(platform); parseErr == nil {
		label = string(p)
	}
	outcome := "success"
	if err != nil {
		outcome = apperrors.KindOf(err).String()
	}
	s.metrics.FlowOutcome(operation, label, outcome)
}
