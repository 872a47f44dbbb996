// Package errors classifies Dropbox API failures into stable CLI errors.
package errors

import (
	"fmt"
	"strings"

	"github.com/dbxbak/dbxbak/internal/logging"
	"github.com/dbxbak/dbxbak/internal/types"
	"github.com/dbxbak/dbxbak/internal/utils"
)

// APIError is a non-2xx response from the Dropbox API.
// Summary is the machine-readable error_summary from the response body.
type APIError struct {
	StatusCode int
	Summary    string
	Endpoint   string
	RetryAfter int // seconds, from a 429 response; 0 when absent
}

func (e *APIError) Error() string {
	if e.Summary != "" {
		return fmt.Sprintf("dropbox: %s (status %d): %s", e.Endpoint, e.StatusCode, e.Summary)
	}
	return fmt.Sprintf("dropbox: %s (status %d)", e.Endpoint, e.StatusCode)
}

// IsRetryable reports whether the request may succeed on retry
func (e *APIError) IsRetryable() bool {
	switch e.StatusCode {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// ClassifyDropboxError converts an API failure into an AppError with a
// stable code, logging the classification with the request's trace ID.
func ClassifyDropboxError(err error, reqCtx *types.RequestContext, logger logging.Logger) error {
	apiErr, ok := err.(*APIError)
	if !ok {
		logger.Error("Non-API error",
			logging.F("error", err.Error()),
			logging.F("traceId", reqCtx.TraceID),
		)
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeNetworkError, err.Error()).
			WithRetryable(true).
			WithContext("traceId", reqCtx.TraceID).
			Build())
	}

	var code string
	retryable := apiErr.IsRetryable()

	switch apiErr.StatusCode {
	case 400:
		code = utils.ErrCodeInvalidArgument
	case 401:
		code = utils.ErrCodeAuthExpired
	case 403:
		code = utils.ErrCodePermissionDenied
		// A member that the token may not act for is a distinct,
		// per-member condition the pipeline isolates.
		if strings.Contains(apiErr.Summary, "team_license_limit") ||
			strings.Contains(apiErr.Summary, "user_suspended") ||
			strings.Contains(apiErr.Summary, "invalid_select_user") {
			code = utils.ErrCodeMemberNotAllowed
		}
	case 409:
		code = utils.ErrCodePathNotFound
		if !strings.HasPrefix(apiErr.Summary, "path/") {
			code = utils.ErrCodeInvalidArgument
		}
	case 429:
		code = utils.ErrCodeRateLimited
	case 500, 502, 503, 504:
		code = utils.ErrCodeNetworkError
	default:
		code = utils.ErrCodeUnknown
		retryable = apiErr.StatusCode >= 500
	}

	logger.Error("API error classified",
		logging.F("httpStatus", apiErr.StatusCode),
		logging.F("errorCode", code),
		logging.F("retryable", retryable),
		logging.F("summary", apiErr.Summary),
		logging.F("traceId", reqCtx.TraceID),
		logging.F("requestType", string(reqCtx.RequestType)),
	)

	builder := utils.NewCLIError(code, apiErr.Error()).
		WithHTTPStatus(apiErr.StatusCode).
		WithAPISummary(apiErr.Summary).
		WithRetryable(retryable).
		WithContext("traceId", reqCtx.TraceID).
		WithContext("requestType", string(reqCtx.RequestType))

	if reqCtx.MemberID != "" {
		builder.WithContext("memberId", reqCtx.MemberID)
	}

	switch code {
	case utils.ErrCodeAuthExpired:
		builder.WithContext("suggestedAction", "run 'dbxbak auth set' with a fresh team token")
	case utils.ErrCodeRateLimited:
		builder.WithContext("suggestedAction", "wait before retrying")
		if apiErr.RetryAfter > 0 {
			builder.WithContext("retryAfterSeconds", apiErr.RetryAfter)
		}
	case utils.ErrCodeMemberNotAllowed:
		builder.WithContext("suggestedAction", "verify the member is active and the token has member file access")
	}

	return utils.NewAppError(builder.Build())
}
