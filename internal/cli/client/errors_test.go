package client

import (
	"errors"
	"net/http"
	"testing"

	"github.com/travelsystem/tso/internal/cli/session"
)

func TestMessageExtraction(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		fallback string
		want     string
	}{
		{
			name:     "string detail",
			body:     `{"detail":"Invalid company code"}`,
			fallback: "login failed",
			want:     "Invalid company code",
		},
		{
			name:     "list of field errors",
			body:     `{"detail":[{"loc":["body","username"],"msg":"field required"},{"loc":["body","password"],"msg":"too short"}]}`,
			fallback: "login failed",
			want:     "field required",
		},
		{
			name:     "list of strings",
			body:     `{"detail":["first","second"]}`,
			fallback: "login failed",
			want:     "first",
		},
		{
			name:     "object with msg",
			body:     `{"detail":{"msg":"account locked"}}`,
			fallback: "login failed",
			want:     "account locked",
		},
		{
			name:     "object with message",
			body:     `{"detail":{"message":"quota exceeded"}}`,
			fallback: "login failed",
			want:     "quota exceeded",
		},
		{
			name:     "object without msg or message",
			body:     `{"detail":{"code":7}}`,
			fallback: "login failed",
			want:     "login failed",
		},
		{
			name:     "list led by an unreadable item",
			body:     `{"detail":[{"loc":["body"]},{"msg":"second"}]}`,
			fallback: "login failed",
			want:     "login failed",
		},
		{
			name:     "no detail",
			body:     `{"error":"boom"}`,
			fallback: "login failed",
			want:     "login failed",
		},
		{
			name:     "not json",
			body:     `<html>bad gateway</html>`,
			fallback: "login failed",
			want:     "login failed",
		},
		{
			name:     "empty list",
			body:     `{"detail":[]}`,
			fallback: "login failed",
			want:     "login failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newAPIError(http.StatusUnprocessableEntity, []byte(tt.body), "/api/auth/login", session.DomainAdmin)
			if got := Message(err, tt.fallback); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessage_NonAPIError(t *testing.T) {
	if got := Message(errors.New("disk full"), "fallback"); got != "fallback" {
		t.Errorf("Message() = %q, want fallback", got)
	}
	if got := Message(nil, "fallback"); got != "fallback" {
		t.Errorf("Message(nil) = %q, want fallback", got)
	}
}

func TestAPIError_MessageFallsBackToBody(t *testing.T) {
	err := newAPIError(http.StatusBadGateway, []byte("upstream down"), "/api/store/modules", session.DomainAdmin)
	if err.Message != "upstream down" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Kind != KindServer {
		t.Errorf("Kind = %s", err.Kind)
	}

	empty := newAPIError(http.StatusNotFound, nil, "/api/x", session.DomainAdmin)
	if empty.Message != "Not Found" {
		t.Errorf("Message = %q", empty.Message)
	}
	if empty.Error() != "request failed (status 404): Not Found" {
		t.Errorf("Error() = %q", empty.Error())
	}
}

func TestKindForStatus(t *testing.T) {
	tests := map[int]Kind{
		http.StatusUnauthorized:        KindAuthentication,
		http.StatusForbidden:           KindAuthorization,
		http.StatusNotFound:            KindValidation,
		http.StatusUnprocessableEntity: KindValidation,
		http.StatusServiceUnavailable:  KindServer,
	}
	for status, want := range tests {
		if got := kindForStatus(status); got != want {
			t.Errorf("kindForStatus(%d) = %s, want %s", status, got, want)
		}
	}
}
