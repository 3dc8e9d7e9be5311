package google

import (
	"errors"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/teemow/leadcal/internal/apperror"
)

// rateLimitReasons are 403 reasons that signal throttling, not a permission
// problem.
var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"quotaExceeded":         true,
	"dailyLimitExceeded":    true,
}

// IsAuthFailure reports whether err came from the OAuth token endpoint
// rejecting the grant.
func IsAuthFailure(err error) bool {
	var re *oauth2.RetrieveError
	return errors.As(err, &re)
}

// ClassifyAPIError converts a Google API client error into an apperror kind.
// Errors that are already classified pass through unchanged.
func ClassifyAPIError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return err
	}
	if IsAuthFailure(err) {
		return apperror.Auth(op, err)
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return apperror.Unavailable(op, err)
	}

	switch gerr.Code {
	case http.StatusUnauthorized:
		return apperror.Auth(op, err)
	case http.StatusForbidden:
		for _, item := range gerr.Errors {
			if rateLimitReasons[item.Reason] {
				return apperror.Unavailable(op, err)
			}
		}
		return apperror.Auth(op, err)
	case http.StatusNotFound, http.StatusGone:
		return &apperror.Error{Kind: apperror.KindNotFound, Op: op, Msg: "resource not found", Err: err}
	default:
		return apperror.Unavailable(op, err)
	}
}
