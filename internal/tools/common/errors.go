package common

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/leadcal/internal/apperror"
)

// ReauthHint is appended to authentication failures.
const ReauthHint = "Credentials are missing, expired or revoked. Re-authorize with `leadcal token --force` or check the service account file."

// ErrorResult renders a classified error as a tool error result. Errors
// with an authentication failure anywhere in their chain carry ReauthHint.
func ErrorResult(err error) *mcp.CallToolResult {
	kind := apperror.KindOf(err)
	if kind == apperror.KindUnknown {
		return mcp.NewToolResultError(fmt.Sprintf("internal error: %v", err))
	}
	msg := fmt.Sprintf("%s: %v", kind, err)
	if apperror.Is(err, apperror.KindAuth) {
		msg += "\n\n" + ReauthHint
	}
	return mcp.NewToolResultError(msg)
}

// ErrServiceUnavailable is reported when a tool's backing service is not configured.
var ErrServiceUnavailable = errors.New("service not configured")

// Unconfigured returns the tool error for a missing service.
func Unconfigured(name string) *mcp.CallToolResult {
	return ErrorResult(apperror.Unavailable(name, ErrServiceUnavailable))
}
