// model/decision.go

package model

// DecisionKind is the terminal classification of one admission evaluation.
type DecisionKind int

const (
	// Skip means the engine has no opinion and the surrounding pipeline
	// should proceed as if the engine were not configured.
	Skip DecisionKind = iota
	Allow
	Block
	Redirect
	InternalError
)

func (k DecisionKind) String() string {
	switch k {
	case Skip:
		return "skip"
	case Allow:
		return "allow"
	case Block:
		return "block"
	case Redirect:
		return "redirect"
	case InternalError:
		return "internal_error"
	}
	return "unknown"
}

// Decision is the engine's outcome for one request.
type Decision struct {
	Kind           DecisionKind
	StatusCode     int
	RedirectTarget string
	// Note carries a human-readable diagnostic for InternalError outcomes,
	// suitable for display in the error response.
	Note string
}

// Terminal reports whether the decision short-circuits request processing.
func (d Decision) Terminal() bool {
	return d.Kind != Skip && d.Kind != Allow
}
