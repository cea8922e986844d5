package apperror

import (
	"errors"
	"fmt"
)

// ServiceUnavailableError is returned when a required credential is missing.
// It is raised before any network call.
type ServiceUnavailableError struct {
	Service string
	Reason  string
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("%s: service not configured: %s", e.Service, e.Reason)
}

// NewServiceUnavailable builds a ServiceUnavailableError.
func NewServiceUnavailable(service, reason string) error {
	return &ServiceUnavailableError{Service: service, Reason: reason}
}

// UpstreamError carries a failed response from an external service. Status
// and Body are the upstream values, passed to the client verbatim.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error: %d", e.Service, e.Status)
}

// IsServiceUnavailable reports whether err is, or wraps, a ServiceUnavailableError.
func IsServiceUnavailable(err error) bool {
	var target *ServiceUnavailableError
	return errors.As(err, &target)
}

// AsUpstream unwraps an UpstreamError from err.
func AsUpstream(err error) (*UpstreamError, bool) {
	var target *UpstreamError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
