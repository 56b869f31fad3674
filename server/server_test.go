package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-social-connect/connect"
	"github.com/jrsteele09/go-social-connect/internal/config"
	"github.com/jrsteele09/go-social-connect/internal/metrics"
	"github.com/jrsteele09/go-social-connect/internal/utils"
	"github.com/jrsteele09/go-social-connect/oauthstate"
	"github.com/jrsteele09/go-social-connect/platforms"
	"github.com/jrsteele09/go-social-connect/providers"
	"github.com/jrsteele09/go-social-connect/providers/providerfakes"
	"github.com/jrsteele09/go-social-connect/server"
	"github.com/jrsteele09/go-social-connect/sessions/memstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const allowedOrigin = "https://app.example.com"

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type testServer struct {
	*httptest.Server
	client   *http.Client
	store    *memstore.Store
	adapters map[platforms.Platform]*providerfakes.FakeAdapter
}

func setDevEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV", "DEV")
	t.Setenv("COOKIE_SECRET", strings.Repeat("k", 40))
	t.Setenv("CORS_ALLOWED_ORIGINS", allowedOrigin)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	setDevEnv(t)

	adapters := map[platforms.Platform]*providerfakes.FakeAdapter{
		platforms.Facebook:  providerfakes.NewFakeAdapter(platforms.Facebook, false, providers.FacebookUser{ID: "fb-1", Name: "Jane Doe", Email: utils.Ptr("jane@example.com")}),
		platforms.Instagram: providerfakes.NewFakeAdapter(platforms.Instagram, false, providers.InstagramUser{ID: "ig-1", Username: "jane.ig"}),
		platforms.Twitter:   providerfakes.NewFakeAdapter(platforms.Twitter, true, providers.TwitterUser{ID: "tw-1", Name: "Jane", Username: "jane_dev"}),
		platforms.Amazon:    providerfakes.NewFakeAdapter(platforms.Amazon, false, providers.AmazonUser{UserID: "amzn1.account.1", Name: "Jane Seller"}),
	}
	registry := providers.NewRegistry(
		adapters[platforms.Facebook], adapters[platforms.Instagram], adapters[platforms.Twitter], adapters[platforms.Amazon],
	)

	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	svc, err := connect.NewService(registry, connect.NewPolicy(nil), connect.WithMetrics(m))
	require.NoError(t, err)

	store := memstore.New(time.Hour, time.Minute)
	s, err := server.New(config.New(), svc, store, m)
	require.NoError(t, err)

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testServer{
		Server:   ts,
		client:   &http.Client{Jar: jar},
		store:    store,
		adapters: adapters,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, header http.Header) (*http.Response, apiResponse) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := ts.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out apiResponse
	if len(body) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(body, &out), string(body))
	}
	return resp, out
}

func (ts *testServer) login(t *testing.T, userID string, plan platforms.Plan) {
	t.Helper()
	resp, out := ts.do(t, http.MethodPost, server.RouteDevSession+"?userId="+userID+"&plan="+string(plan), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Error)
	require.True(t, out.Success)
	require.Equal(t, 1, ts.store.Count())
}

// initiate starts a flow and returns the parsed provider authorization URL.
func (ts *testServer) initiate(t *testing.T, platform platforms.Platform) *url.URL {
	t.Helper()
	resp, out := ts.do(t, http.MethodGet, server.RouteOAuthInitiate+"?platform="+string(platform), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Error)

	var result connect.InitiateResult
	require.NoError(t, json.Unmarshal(out.Data, &result))
	require.Equal(t, platform, result.Platform)

	authURL, err := url.Parse(result.AuthURL)
	require.NoError(t, err)
	return authURL
}

func (ts *testServer) callback(t *testing.T, platform platforms.Platform, code, state string) (*http.Response, apiResponse) {
	t.Helper()
	q := url.Values{"platform": {string(platform)}, "code": {code}, "state": {state}}
	return ts.do(t, http.MethodGet, server.RouteOAuthCallback+"?"+q.Encode(), nil)
}

func (ts *testServer) status(t *testing.T) connect.StatusResult {
	t.Helper()
	resp, out := ts.do(t, http.MethodGet, server.RouteOAuthStatus, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Error)

	var result connect.StatusResult
	require.NoError(t, json.Unmarshal(out.Data, &result))
	return result
}

func TestOAuthRoutes_RequireSession(t *testing.T) {
	ts := newTestServer(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, server.RouteOAuthInitiate + "?platform=facebook"},
		{http.MethodGet, server.RouteOAuthCallback + "?platform=facebook&code=c&state=s"},
		{http.MethodPost, server.RouteOAuthDisconnect + "?platform=facebook"},
		{http.MethodGet, server.RouteOAuthStatus},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp, out := ts.do(t, tc.method, tc.path, nil)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			require.False(t, out.Success)
			require.Equal(t, "Authentication required", out.Error)
		})
	}
}

func TestOAuthFlow_ConnectStatusDisconnect(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "user-1", platforms.PlanFreemium)

	authURL := ts.initiate(t, platforms.Facebook)
	state := authURL.Query().Get("state")
	require.NotEmpty(t, state)
	require.Equal(t, ts.URL+"/api/auth/oauth/callback?platform=facebook", authURL.Query().Get("redirect_uri"))

	resp, out := ts.callback(t, platforms.Facebook, providerfakes.ValidCode, state)
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Error)
	require.Equal(t, "Successfully connected to Facebook", out.Message)

	var cb connect.CallbackResult
	require.NoError(t, json.Unmarshal(out.Data, &cb))
	require.True(t, cb.Connected)
	require.Equal(t, "fb-1", cb.UserData.UserID)
	require.Equal(t, "Jane Doe", cb.UserData.Username)
	require.Equal(t, ts.URL+"/api/auth/oauth/callback?platform=facebook", ts.adapters[platforms.Facebook].LastRedirectURI)

	status := ts.status(t)
	require.Equal(t, platforms.PlanFreemium, status.UserPlan)
	require.Equal(t, 1, status.ConnectedCount)
	require.False(t, status.IsMultiPlatformAllowed)

	// freemium cap
	resp, out = ts.do(t, http.MethodGet, server.RouteOAuthInitiate+"?platform=twitter", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Contains(t, out.Error, "Freemium plan allows only one platform connection")

	resp, out = ts.do(t, http.MethodPost, server.RouteOAuthDisconnect+"?platform=facebook", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Error)
	require.Equal(t, "Successfully disconnected from Facebook", out.Message)
	require.Equal(t, 0, ts.status(t).ConnectedCount)
}

func TestOAuthCallback_TwitterPKCE(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "user-1", platforms.PlanPremiumMonthly)

	authURL := ts.initiate(t, platforms.Twitter)
	require.Equal(t, "S256", authURL.Query().Get("code_challenge_method"))
	challenge := authURL.Query().Get("code_challenge")
	require.NotEmpty(t, challenge)

	resp, out := ts.callback(t, platforms.Twitter, providerfakes.ValidCode, authURL.Query().Get("state"))
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Error)

	verifier := ts.adapters[platforms.Twitter].LastCodeVerifier
	require.NotEmpty(t, verifier)
	require.Equal(t, challenge, oauthstate.ChallengeFromVerifier(verifier))
}

func TestOAuthCallback_StateMismatchClearsPending(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "user-1", platforms.PlanFreemium)

	authURL := ts.initiate(t, platforms.Facebook)

	resp, out := ts.callback(t, platforms.Facebook, providerfakes.ValidCode, "forged-state")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Invalid OAuth state. Please restart the connection flow.", out.Error)
	require.Zero(t, ts.adapters[platforms.Facebook].ExchangeCodeCalls)

	// the genuine state is gone too
	resp, _ = ts.callback(t, platforms.Facebook, providerfakes.ValidCode, authURL.Query().Get("state"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, 0, ts.status(t).ConnectedCount)
}

func TestOAuthCallback_ProviderDenied(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "user-1", platforms.PlanFreemium)

	q := url.Values{"platform": {"facebook"}, "error": {"access_denied"}, "error_description": {"User denied"}}
	resp, out := ts.do(t, http.MethodGet, server.RouteOAuthCallback+"?"+q.Encode(), nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "OAuth authorization failed: access_denied - User denied", out.Error)
}

func TestOAuthInitiate_ForwardedHeaders(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "user-1", platforms.PlanFreemium)

	header := http.Header{}
	header.Set("X-Forwarded-Proto", "https")
	header.Set("X-Forwarded-Host", "connect.example.com, proxy.internal")
	resp, out := ts.do(t, http.MethodGet, server.RouteOAuthInitiate+"?platform=instagram", header)
	require.Equal(t, http.StatusOK, resp.StatusCode, out.Error)
	require.Equal(t, "max-age=31536000; includeSubDomains", resp.Header.Get("Strict-Transport-Security"))

	var result connect.InitiateResult
	require.NoError(t, json.Unmarshal(out.Data, &result))
	authURL, err := url.Parse(result.AuthURL)
	require.NoError(t, err)
	require.Equal(t, "https://connect.example.com/api/auth/oauth/callback?platform=instagram", authURL.Query().Get("redirect_uri"))
}

func TestOAuthInitiate_Validation(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "user-1", platforms.PlanFreemium)

	resp, out := ts.do(t, http.MethodGet, server.RouteOAuthInitiate+"?platform=myspace", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Unsupported platform: myspace", out.Error)

	resp, out = ts.do(t, http.MethodGet, server.RouteOAuthInitiate+"?platform=amazon", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "Amazon connection requires a premium subscription", out.Error)
}

func TestSecurityHeaders(t *testing.T) {
	ts := newTestServer(t)

	resp, out := ts.do(t, http.MethodGet, server.RouteHealth, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, out.Success)
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	require.NotEmpty(t, resp.Header.Get("Referrer-Policy"))
	require.Empty(t, resp.Header.Get("Strict-Transport-Security"))
}

func TestCorsPreflight(t *testing.T) {
	ts := newTestServer(t)

	header := http.Header{}
	header.Set("Origin", allowedOrigin)
	header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, _ := ts.do(t, http.MethodOptions, server.RouteOAuthDisconnect, header)
	require.Equal(t, allowedOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	header.Set("Origin", "https://evil.example.com")
	resp, _ = ts.do(t, http.MethodOptions, server.RouteOAuthDisconnect, header)
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t, "user-1", platforms.PlanFreemium)
	ts.initiate(t, platforms.Facebook)

	resp, err := ts.client.Get(ts.URL + server.RouteMetrics)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `social_connect_oauth_flow_total{operation="initiate",outcome="success",platform="facebook"} 1`)
	require.Contains(t, string(body), "social_connect_http_requests_total")
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	resp, out := ts.do(t, http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.False(t, out.Success)
}

func TestDevSession_Validation(t *testing.T) {
	ts := newTestServer(t)

	resp, out := ts.do(t, http.MethodPost, server.RouteDevSession+"?plan=FREEMIUM", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "userId is required", out.Error)

	resp, _ = ts.do(t, http.MethodPost, server.RouteDevSession+"?userId=u&plan=GOLD", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Zero(t, ts.store.Count())
}

func TestNew_RejectsShortCookieSecretOutsideDev(t *testing.T) {
	t.Setenv("ENV", "PROD")
	t.Setenv("COOKIE_SECRET", "short")

	svc, err := connect.NewService(providers.NewRegistry(), connect.NewPolicy(nil))
	require.NoError(t, err)
	_, err = server.New(config.New(), svc, memstore.New(time.Hour, time.Minute), nil)
	require.ErrorContains(t, err, "COOKIE_SECRET")
}

func TestNew_DevRoutesOnlyInDev(t *testing.T) {
	t.Setenv("ENV", "PROD")
	t.Setenv("COOKIE_SECRET", strings.Repeat("k", 40))

	svc, err := connect.NewService(providers.NewRegistry(), connect.NewPolicy(nil))
	require.NoError(t, err)
	s, err := server.New(config.New(), svc, memstore.New(time.Hour, time.Minute), nil)
	require.NoError(t, err)
	require.NotContains(t, s.Routes(), "POST "+server.RouteDevSession)
	require.Contains(t, s.Routes(), "GET "+server.RouteOAuthInitiate)
}

func TestRecoverMiddleware(t *testing.T) {
	setDevEnv(t)
	svc, err := connect.NewService(providers.NewRegistry(), connect.NewPolicy(nil))
	require.NoError(t, err)
	s, err := server.New(config.New(), svc, memstore.New(time.Hour, time.Minute), nil)
	require.NoError(t, err)

	h := server.ChainMiddleware(func(http.ResponseWriter, *http.Request) { panic("boom") }, s.StdMiddleware()...)
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var out apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.False(t, out.Success)
	require.Equal(t, "An unexpected error occurred. Please try again.", out.Error)
}
