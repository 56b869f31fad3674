package providers

import "strings"

// NormalizeRedirectURI collapses repeated slashes in the path of a redirect URI, which appear
// when a base URL with a trailing slash is joined with an absolute path. Providers compare
// redirect URIs byte for byte, so initiate and callback must agree.
func NormalizeRedirectURI(uri string) string {
	scheme := ""
	rest := uri
	if i := strings.Index(uri, "://"); i >= 0 {
		scheme, rest = uri[:i+3], uri[i+3:]
	}

	query := ""
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest, query = rest[:i], rest[i:]
	}
	for strings.Contains(rest, "//") {
		rest = strings.ReplaceAll(rest, "//", "/")
	}
	return scheme + rest + query
}
