package server

import "github.com/jrsteele09/go-social-connect/connect"

// Route path constants
const (
	// OAuth connection routes
	RouteOAuthInitiate   = "/api/auth/oauth/initiate"
	RouteOAuthCallback   = connect.CallbackPath
	RouteOAuthDisconnect = "/api/auth/oauth/disconnect"
	RouteOAuthStatus     = "/api/auth/oauth/status"

	// Preflight for every API route
	RouteAPIPrefix = "/api/"

	// Operational routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// DEV only: mints a signed in session in place of the external login
	RouteDevSession = "/api/dev/session"
)
