package server

import (
	"fmt"
	"net/http"
	"strings"

	gsessions "github.com/gorilla/sessions"
	"github.com/jrsteele09/go-social-connect/connect"
	"github.com/jrsteele09/go-social-connect/internal/config"
	"github.com/jrsteele09/go-social-connect/internal/metrics"
	"github.com/jrsteele09/go-social-connect/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	connect *connect.Service
	store   sessions.Store
	cookies *gsessions.CookieStore
	metrics *metrics.Metrics
	cors    func(http.Handler) http.Handler

	strictProviderErrors bool
}

// New wires the HTTP surface around the flow orchestrator. m may be nil.
func New(cfg config.Config, connectService *connect.Service, store sessions.Store, m *metrics.Metrics) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[Server New] config is required")
	}
	if connectService == nil {
		return nil, errors.New("[Server New] connect service is required")
	}
	if store == nil {
		return nil, errors.New("[Server New] session store is required")
	}

	cookies, err := newCookieStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}

	s := &Server{
		env:                  cfg.GetEnv(),
		mux:                  http.NewServeMux(),
		config:               cfg,
		connect:              connectService,
		store:                store,
		cookies:              cookies,
		metrics:              m,
		cors:                 newCorsHandler(cfg),
		strictProviderErrors: cfg.GetStrictProviderErrors(),
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) isDev() bool {
	return strings.EqualFold(s.env, "DEV")
}

func (s *Server) logRoutes() {
	if !s.isDev() {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Debug().Msgf("[%-19s] %s", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return firstHeaderValue(scheme)
	}
	return "http"
}

// redirectBase is the origin the browser used to reach us: forwarded headers first, then the
// Host header, then the configured app URL.
func (s *Server) redirectBase(r *http.Request) string {
	if host := firstHeaderValue(r.Header.Get("X-Forwarded-Host")); host != "" {
		return getScheme(r) + "://" + host
	}
	if r.Host != "" {
		return getScheme(r) + "://" + r.Host
	}
	return s.config.GetAppURL()
}

// firstHeaderValue returns the first entry of a comma separated proxy header.
func firstHeaderValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
