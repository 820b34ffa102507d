// errors/engine_errors.go
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotDecisionService is returned when the remote endpoint answers 404,
	// which means whatever is listening there is not the decision service.
	// It is never subject to fallback policy.
	ErrNotDecisionService = errors.New("endpoint is not a decision service")

	// ErrResponseNotRecorded is returned when the query nominally succeeded
	// but no response body was captured. It indicates a wiring defect, not a
	// remote-service condition, and is never subject to fallback policy.
	ErrResponseNotRecorded = errors.New("decision service response was not recorded")

	ErrInvalidFallback   = errors.New("invalid fallback keyword")
	ErrInvalidStatusCode = errors.New("invalid blocked status code")
	ErrInvalidServiceURL = errors.New("invalid decision service url")
)

// ServiceError is a transport failure or unexpected status from the decision
// service. It is the only query error subject to fallback policy.
type ServiceError struct {
	Status int
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decision service error: %v", e.Err)
	}
	return fmt.Sprintf("decision service returned status %d", e.Status)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
