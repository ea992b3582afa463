package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/travelsystem/tso/internal/cli/session"
)

// Kind classifies API failures
type Kind int

const (
	KindUnknown Kind = iota
	KindNetwork
	KindAuthentication
	KindAuthorization
	KindValidation
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// APIError is returned for every failed API call
type APIError struct {
	Kind        Kind
	Status      int
	Message     string
	Detail      json.RawMessage
	RequestPath string
	Domain      session.Domain
	Err         error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
	return fmt.Sprintf("request failed (status %d): %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAuthFailure reports a 401 or 403 response
func (e *APIError) IsAuthFailure() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

func newAPIError(status int, body []byte, path string, domain session.Domain) *APIError {
	apiErr := &APIError{
		Kind:        kindForStatus(status),
		Status:      status,
		RequestPath: path,
		Domain:      domain,
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Detail = payload.Detail
		if msg, ok := detailMessage(payload.Detail); ok {
			apiErr.Message = msg
		} else if payload.Error != "" {
			apiErr.Message = payload.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status == http.StatusForbidden:
		return KindAuthorization
	case status >= 500:
		return KindServer
	case status >= 400:
		return KindValidation
	default:
		return KindUnknown
	}
}

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Message returns the best user-facing message for err: the server's detail
// when there is one, otherwise fallback. Network failures get a fixed text.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return fallback
	}
	if apiErr.Kind == KindNetwork {
		return "could not reach backend, make sure it is running and TSO_BACKEND_URL is correct"
	}
	if msg, ok := detailMessage(apiErr.Detail); ok {
		return msg
	}
	return fallback
}

// detailMessage extracts a message from a "detail" payload: a string is used
// as-is, a list of field errors yields its first item, an object its "msg" or
// "message". Anything else has no message.
func detailMessage(detail json.RawMessage) (string, bool) {
	if len(detail) == 0 || string(detail) == "null" {
		return "", false
	}

	var list []json.RawMessage
	if err := json.Unmarshal(detail, &list); err == nil {
		if len(list) == 0 {
			return "", false
		}
		return itemMessage(list[0])
	}
	return itemMessage(detail)
}

func itemMessage(item json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s, s != ""
	}

	var obj struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(item, &obj); err == nil {
		if obj.Msg != "" {
			return obj.Msg, true
		}
		return obj.Message, obj.Message != ""
	}
	return "", false
}
