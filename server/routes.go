package server

import "net/http"

func (s *Server) initRoutes() {
	// OAuth connection API
	s.RegisterRouteHandler("GET "+RouteOAuthInitiate, ChainMiddleware(s.OAuthInitiateHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteOAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteOAuthDisconnect, ChainMiddleware(s.OAuthDisconnectHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteOAuthStatus, ChainMiddleware(s.OAuthStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteAPIPrefix, ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	if s.isDev() {
		s.RegisterRouteHandler("POST "+RouteDevSession, ChainMiddleware(s.DevSessionHandler(), s.APIMiddleware()...))
	}

	// Operational
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.StdMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMetrics, ChainMiddleware(s.metricsHandler(), s.StdMiddleware()...))

	s.RegisterRouteFunc("/", ChainMiddleware(s.NotFoundHandler(), s.StdMiddleware()...))
}

func (s *Server) metricsHandler() http.HandlerFunc {
	h := s.metrics.Handler()
	return h.ServeHTTP
}
