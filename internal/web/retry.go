package web

import (
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/failsafehttp"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/Belphemur/callcache/internal/config"
)

// Backoff bounds between attempts. Tests shorten them.
var (
	retryDelay    = 250 * time.Millisecond
	maxRetryDelay = 2 * time.Second
)

// retryable reports whether an attempt failed in a way worth repeating:
// a transport error, 429 or any 5xx.
func retryable(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp != nil && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError)
}

// newRetryTransport wraps next with a retry policy. The last response or error is
// returned once the retries are exhausted, so callers see the real status code.
func newRetryTransport(next http.RoundTripper, maxRetries int) http.RoundTripper {
	if maxRetries <= 0 {
		return next
	}
	logger := config.GetLogger()
	policy := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(retryable).
		WithMaxRetries(maxRetries).
		WithBackoff(retryDelay, maxRetryDelay).
		ReturnLastFailure().
		OnRetry(func(e failsafe.ExecutionEvent[*http.Response]) {
			logger.Debug().Int("attempt", e.Attempts()).Err(e.LastError()).Msg("Retrying page fetch")
		}).
		Build()
	return failsafehttp.NewRoundTripper(next, policy)
}
