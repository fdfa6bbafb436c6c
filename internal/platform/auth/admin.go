// Package auth implements the shared-secret admin authentication used by the
// admin surface. There is deliberately no session or token issuance: every
// admin request carries the secret and is checked with a constant-time
// compare.
package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// PasswordHeader is the header admin requests carry the shared secret in.
const PasswordHeader = "X-Admin-Password"

// Result is the outcome of an authentication attempt.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AdminAuthenticator checks a supplied password against the configured
// shared secret.
type AdminAuthenticator struct {
	secret string
}

// NewAdminAuthenticator creates an authenticator for the given secret. An
// empty secret means authentication is not configured.
func NewAdminAuthenticator(secret string) *AdminAuthenticator {
	return &AdminAuthenticator{secret: secret}
}

// Configured reports whether a shared secret has been set.
func (a *AdminAuthenticator) Configured() bool {
	return a.secret != ""
}

// Authenticate compares the supplied password with the configured secret.
func (a *AdminAuthenticator) Authenticate(password string) Result {
	if !a.Configured() {
		return Result{Success: false, Message: "admin access is not configured"}
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(a.secret)) != 1 {
		return Result{Success: false, Message: "invalid password"}
	}
	return Result{Success: true, Message: "authenticated"}
}

// RequireAdmin guards a route group: the request must carry the shared secret
// in the X-Admin-Password header.
func RequireAdmin(a *AdminAuthenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res := a.Authenticate(c.Request().Header.Get(PasswordHeader))
			if !res.Success {
				status := http.StatusUnauthorized
				if !a.Configured() {
					status = http.StatusServiceUnavailable
				}
				return echo.NewHTTPError(status, res.Message)
			}
			return next(c)
		}
	}
}
