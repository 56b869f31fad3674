package config

import (
	"net/http"
	"strings"
)

type Cors struct{}

var _ CorsConfig = Cors{}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	return strings.Join(a.List(), ", ")
}

// List returns the origins in no particular order.
func (a AllowedOrigins) List() []string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return origins
}

// GetAllowedOrigins reads the comma separated CORS_ALLOWED_ORIGINS.
func (Cors) GetAllowedOrigins() AllowedOrigins {
	origins := AllowedOrigins{}
	for _, o := range strings.Split(GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = nullValue{}
		}
	}
	return origins
}

func (Cors) GetAllowedMethods() []string {
	return []string{http.MethodGet, http.MethodPost, http.MethodOptions}
}

func (Cors) GetAllowedHeaders() []string {
	return []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"}
}
