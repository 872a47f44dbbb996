// Package api implements the Dropbox Business HTTP API surface the backup
// needs: team member listing, per-member folder listing and file download.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"

	"github.com/dbxbak/dbxbak/internal/errors"
	"github.com/dbxbak/dbxbak/internal/logging"
	"github.com/dbxbak/dbxbak/internal/types"
	"github.com/dbxbak/dbxbak/internal/utils"
)

// Client talks to the Dropbox Business API on behalf of a team token.
// Transport-level retries (429, 5xx) are handled by retryablehttp; the
// caller sees only the final outcome.
type Client struct {
	httpClient *retryablehttp.Client
	baseAPI    string
	baseContent string
	logger     logging.Logger
}

// Options configures client construction
type Options struct {
	MaxRetries   int
	RetryDelayMs int
	// Timeout bounds a single HTTP exchange, including the body. Zero
	// means no limit, which large downloads need.
	Timeout time.Duration
	// BaseAPI and BaseContent override the Dropbox endpoints, for tests
	BaseAPI     string
	BaseContent string
}

// NewClient creates a client authenticated by the given token source
func NewClient(ts oauth2.TokenSource, opts Options, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = utils.DefaultMaxRetries
	}
	if opts.RetryDelayMs == 0 {
		opts.RetryDelayMs = utils.DefaultRetryDelayMs
	}
	if opts.BaseAPI == "" {
		opts.BaseAPI = utils.APIBase
	}
	if opts.BaseContent == "" {
		opts.BaseContent = utils.ContentBase
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.MaxRetries
	rc.RetryWaitMin = time.Duration(opts.RetryDelayMs) * time.Millisecond
	rc.RetryWaitMax = time.Duration(utils.MaxRetryDelayMs) * time.Millisecond
	rc.Logger = &retryLogAdapter{logger: logger}
	rc.HTTPClient = oauth2.NewClient(context.Background(), ts)
	rc.HTTPClient.Timeout = opts.Timeout

	return &Client{
		httpClient:  rc,
		baseAPI:     opts.BaseAPI,
		baseContent: opts.BaseContent,
		logger:      logger,
	}
}

// NewRequestContext creates a request context with a fresh trace ID
func NewRequestContext(memberID string, requestType types.RequestType) *types.RequestContext {
	return &types.RequestContext{
		MemberID:    memberID,
		RequestType: requestType,
		TraceID:     uuid.New().String(),
	}
}

// Execute runs one API call with trace logging and error classification
func Execute[T any](ctx context.Context, client *Client, reqCtx *types.RequestContext, fn func() (T, error)) (T, error) {
	logger := client.logger.WithTraceID(reqCtx.TraceID)
	logger.Debug("API operation starting",
		logging.F("requestType", reqCtx.RequestType),
		logging.F("memberId", reqCtx.MemberID),
	)

	start := time.Now()
	result, err := fn()
	duration := time.Since(start)

	if err != nil {
		logger.Error("API operation failed",
			logging.F("duration_ms", duration.Milliseconds()),
			logging.F("error", err.Error()),
		)
		var zero T
		return zero, errors.ClassifyDropboxError(err, reqCtx, client.logger)
	}

	logger.Debug("API operation completed",
		logging.F("duration_ms", duration.Milliseconds()),
	)
	return result, nil
}

// retryLogAdapter exposes our Logger as retryablehttp's LeveledLogger
type retryLogAdapter struct {
	logger logging.Logger
}

func kvFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, logging.F(key, keysAndValues[i+1]))
	}
	return fields
}

func (a *retryLogAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, kvFields(keysAndValues)...)
}

func (a *retryLogAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.logger.Warn(msg, kvFields(keysAndValues)...)
}

func (a *retryLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, kvFields(keysAndValues)...)
}

func (a *retryLogAdapter) Debug(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, kvFields(keysAndValues)...)
}

var _ retryablehttp.LeveledLogger = (*retryLogAdapter)(nil)

// do sends a request and normalizes non-2xx responses into APIError.
// The response body is returned open for 2xx responses.
func (c *Client) do(req *retryablehttp.Request, endpoint string) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, newAPIError(resp, endpoint)
}
