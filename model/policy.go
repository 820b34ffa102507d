// model/policy.go

package model

import "net/http"

// Fallback selects the behaviour when the decision service cannot be reached.
type Fallback int

const (
	FallbackFail Fallback = iota
	FallbackBlock
	FallbackAllow
)

func (f Fallback) String() string {
	switch f {
	case FallbackFail:
		return "fail"
	case FallbackBlock:
		return "block"
	case FallbackAllow:
		return "allow"
	}
	return "unknown"
}

// RedirectEvaluator produces a redirect target for a blocked request. The
// expression is compiled at configuration time; Eval runs once per blocked
// request against that request's context.
type RedirectEvaluator interface {
	Eval(req *RequestContext) (string, error)
}

// AccessPolicy is the fully merged per-scope configuration. Instances are
// immutable after configuration resolution and shared by all requests on
// that scope.
type AccessPolicy struct {
	Enabled           bool
	Fallback          Fallback
	BlockedStatusCode int
	Redirect          RedirectEvaluator
}

// AllowedBlockedStatusCodes restricts the configurable blocked status to a
// small set so misconfiguration cannot produce surprising semantics.
var AllowedBlockedStatusCodes = map[int]bool{
	http.StatusForbidden:           true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
}

// RequestContext is the engine's view of the host request: the client
// address it evaluates, plus the attributes exposed to redirect expressions.
type RequestContext struct {
	ClientIP string
	Host     string
	Path     string
	Method   string
	Headers  map[string]string
	// Internal marks nested sub-evaluations; the engine produces no opinion
	// for them so it can never recurse into itself.
	Internal bool
}
