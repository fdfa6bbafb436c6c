package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestAuthenticate_NotConfigured(t *testing.T) {
	a := NewAdminAuthenticator("")
	res := a.Authenticate("anything")
	if res.Success {
		t.Error("expected failure when no secret is configured")
	}
	if res.Message != "admin access is not configured" {
		t.Errorf("unexpected message %q", res.Message)
	}
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	a := NewAdminAuthenticator("s3cret")
	res := a.Authenticate("nope")
	if res.Success {
		t.Error("expected failure for wrong password")
	}
}

func TestAuthenticate_Success(t *testing.T) {
	a := NewAdminAuthenticator("s3cret")
	res := a.Authenticate("s3cret")
	if !res.Success {
		t.Errorf("expected success, got %q", res.Message)
	}
}

func TestRequireAdmin(t *testing.T) {
	a := NewAdminAuthenticator("s3cret")
	e := echo.New()
	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}
	h := RequireAdmin(a)(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	err := h(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(PasswordHeader, "s3cret")
	rec = httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error with correct secret: %v", err)
	}
}

func TestRequireAdmin_NotConfigured(t *testing.T) {
	a := NewAdminAuthenticator("")
	e := echo.New()
	h := RequireAdmin(a)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	err := h(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when unconfigured, got %v", err)
	}
}
