// Package repository defines error types that are reused across multiple
// repositories. These sentinel values let higher layers such as handlers
// and the move service distinguish between failure scenarios without
// inspecting error strings.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an HTTP
// 403 response.
var ErrForbidden = errors.New("forbidden")
