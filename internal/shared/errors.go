package shared

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error kinds for the voice session core. Fatal kinds surface through the
// session status observable; ErrMalformedMessage is logged and swallowed at
// the decoder boundary.
var (
	ErrTokenFetch       = errors.New("token fetch failed")
	ErrNegotiation      = errors.New("negotiation failed")
	ErrMicrophoneAccess = errors.New("microphone access denied")
	ErrMalformedMessage = errors.New("malformed control message")
	ErrAlreadyConnected = errors.New("session already live")
)

func TokenFetchError(err error) error {
	return fmt.Errorf("%w: %v", ErrTokenFetch, err)
}

func NegotiationError(err error) error {
	return fmt.Errorf("%w: %v", ErrNegotiation, err)
}

func MicrophoneAccessError(err error) error {
	return fmt.Errorf("%w: %v", ErrMicrophoneAccess, err)
}

type APIError struct {
	Code    string `json:"code" example:"invalid_request"`
	Message string `json:"message" example:"Invalid request body"`
	Details any    `json:"details,omitempty"`
}

func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

func (e *APIError) ToHTTP(status int) *echo.HTTPError {
	return echo.NewHTTPError(status, e)
}

func BadRequest(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusBadRequest)
}

func Unauthorized(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusUnauthorized)
}

func BadGateway(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusBadGateway)
}

func InternalError(code, message string) *echo.HTTPError {
	return NewAPIError(code, message).ToHTTP(http.StatusInternalServerError)
}
