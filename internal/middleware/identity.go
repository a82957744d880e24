package middleware

// identity.go provides the helper shared by the rate limiter key builder:
// the identity of the caller as a string, or "anon" when the request carries
// no authenticated user.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// callerID returns the user_id placed in context by JWTAuth, stringified.
// JWT numeric claims arrive as float64, so anything non-nil is formatted
// rather than type-asserted.
func callerID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "anon"
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return "anon"
		}
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprint(t)
	}
}
