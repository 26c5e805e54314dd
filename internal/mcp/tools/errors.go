package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/usestring/splunk-mcp/internal/lookup"
	"github.com/usestring/splunk-mcp/pkg/client"
)

// Error codes for MCP tool responses.
const (
	ErrCodeTransport    = "TRANSPORT_ERROR"
	ErrCodeAuth         = "AUTH_ERROR"
	ErrCodeParse        = "PARSE_ERROR"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeTimeout      = "TIMEOUT"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapSplunkError converts a lookup failure to a coded error.
func WrapSplunkError(err error) error {
	if err == nil {
		return nil
	}

	var (
		coded    *CodedError
		optsErr  *lookup.OptionsError
		authErr  *client.AuthError
		parseErr *client.ParseError
		tErr     *client.TransportError
		netErr   net.Error
	)

	switch {
	case errors.As(err, &optsErr):
		coded = &CodedError{Code: ErrCodeInvalidInput, Message: optsErr.Error()}
	case errors.Is(err, lookup.ErrEmptyQuery):
		coded = &CodedError{Code: ErrCodeInvalidInput, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		coded = &CodedError{Code: ErrCodeTimeout, Message: "request timed out", Cause: err}
	case errors.As(err, &authErr):
		coded = &CodedError{Code: ErrCodeAuth, Message: "Splunk authentication failed", Cause: err}
	case errors.As(err, &parseErr):
		msg := "Splunk returned a response that is not JSON"
		if parseErr.Hint != "" {
			msg += fmt.Sprintf(" (received page %q)", parseErr.Hint)
		}
		coded = &CodedError{Code: ErrCodeParse, Message: msg, Cause: err}
	case errors.As(err, &tErr) && (tErr.StatusCode == 401 || tErr.StatusCode == 403):
		coded = &CodedError{Code: ErrCodeAuth, Message: "Splunk rejected the credentials", Cause: err}
	default:
		coded = &CodedError{Code: ErrCodeTransport, Message: "Splunk request failed", Cause: err}
	}

	slog.Warn("splunk lookup error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)

	return coded
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
