// lapi/endpoint.go
package lapi

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	logger "github.com/gateguard/gateguard/logging"
)

// Endpoint is the resolved target of the decision service. Queries are
// always issued against a fixed API path on scheme+authority; Path is kept
// for diagnostics only.
type Endpoint struct {
	Scheme    string
	Authority string
	Path      string
}

// BaseURL returns the scheme://authority prefix queries are built on.
func (e *Endpoint) BaseURL() string {
	return e.Scheme + "://" + e.Authority
}

// ParseBaseURL splits an absolute URL into scheme, authority and optional
// path with a single left-to-right scan. It does no percent-decoding and no
// query-string handling; only scheme/authority extraction is needed here.
func ParseBaseURL(raw string) (*Endpoint, error) {
	sep := strings.IndexByte(raw, ':')
	if sep < 0 {
		return nil, fmt.Errorf("invalid base url %q: scheme is missing", raw)
	}
	scheme := raw[:sep]

	rest := raw[sep+1:]
	if !strings.HasPrefix(rest, "//") {
		return nil, fmt.Errorf("invalid base url %q: \"//\" after scheme not found", raw)
	}
	rest = rest[2:]

	authority := rest
	path := ""
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		authority = rest[:slash]
		path = rest[slash:]
	}
	if authority == "" {
		return nil, fmt.Errorf("invalid base url %q: authority is missing", raw)
	}

	if path != "" && path != "/" {
		logger.Warn("base url path will be ignored",
			zap.String("url", raw), zap.String("path", path))
	}

	return &Endpoint{
		Scheme:    scheme,
		Authority: authority,
		Path:      path,
	}, nil
}
