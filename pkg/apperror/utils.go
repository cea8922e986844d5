package apperror

import (
	"errors"
	"net/http"

	"grammar-practice/config"
	"grammar-practice/pkg/apperror/status"
	"grammar-practice/pkg/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

// ErrorResponse is the standardized HTTP error payload
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	ErrorCode string `json:"error_code"`
}

// WriteError logs a structured warning and returns a standardized JSON error
func WriteError(module config.Module, c fiber.Ctx, httpStatus int, code status.ErrorCode, message, details string) error {
	logger.WithFields(map[string]interface{}{
		"module":        module,
		"status_code":   httpStatus,
		"error_code":    code.String(),
		"error_message": message,
		"details":       details,
		"http_method":   c.Method(),
		"path":          c.Path(),
		"ip":            c.IP(),
		"request_id":    requestid.FromContext(c),
	}).Warnf("http error")

	return c.Status(httpStatus).JSON(ErrorResponse{
		Error:     message,
		Details:   details,
		ErrorCode: code.String(),
	})
}

// Shorthands for common error responses
func BadRequest(module config.Module, c fiber.Ctx, code status.ErrorCode, message string) error {
	return WriteError(module, c, fiber.StatusBadRequest, code, message, "")
}

// ServiceUnavailable answers 503 for a service whose credential is missing.
func ServiceUnavailable(module config.Module, c fiber.Ctx, code status.ErrorCode, details string) error {
	return WriteError(module, c, fiber.StatusServiceUnavailable, code, "Service not configured", details)
}

// Upstream propagates an external service's status code and body.
func Upstream(module config.Module, c fiber.Ctx, code status.ErrorCode, err *UpstreamError) error {
	httpStatus := err.Status
	if httpStatus < http.StatusBadRequest || httpStatus > 599 {
		httpStatus = fiber.StatusBadGateway
	}
	return WriteError(module, c, httpStatus, code, err.Error(), err.Body)
}

// InternalError writes a structured warning and returns a standardized JSON error
func InternalError(module config.Module, c fiber.Ctx, code status.ErrorCode, err error) error {
	return WriteError(module, c, fiber.StatusInternalServerError, code, "Internal server error", err.Error())
}

// Codes groups the error codes a module reports for each error kind.
type Codes struct {
	NotConfigured  status.ErrorCode
	UpstreamFailed status.ErrorCode
	Internal       status.ErrorCode
}

// FromError maps an error kind to its HTTP response.
func FromError(module config.Module, c fiber.Ctx, codes Codes, err error) error {
	var unavailable *ServiceUnavailableError
	if errors.As(err, &unavailable) {
		return ServiceUnavailable(module, c, codes.NotConfigured, unavailable.Reason)
	}
	if upstream, ok := AsUpstream(err); ok {
		return Upstream(module, c, codes.UpstreamFailed, upstream)
	}
	return InternalError(module, c, codes.Internal, err)
}

// Success writes a JSON success response
func Success(module config.Module, c fiber.Ctx, payload any) error {
	return c.Status(fiber.StatusOK).JSON(payload)
}
