// audit/model.go
package audit

import (
	"time"
)

// DecisionRecord is one admission decision as indexed for audit. Evidence
// is the verbatim decision-service payload; it is stored opaque, never
// interpreted here.
type DecisionRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	RequestID      string    `json:"request_id"`
	ClientIP       string    `json:"client_ip"`
	Host           string    `json:"host"`
	Path           string    `json:"path"`
	Outcome        string    `json:"outcome"`
	StatusCode     int       `json:"status_code"`
	RedirectTarget string    `json:"redirect_target,omitempty"`
	Evidence       string    `json:"evidence,omitempty"`
}
