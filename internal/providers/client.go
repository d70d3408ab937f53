package providers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
)

// ErrAuth marks credential failures. They are not retried.
var ErrAuth = errors.New("authentication error")

// ErrRateLimited is returned when retries are exhausted on HTTP 429.
var ErrRateLimited = errors.New("rate limited")

// IsAuthError reports whether err is a credential failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}

// hclogAdapter forwards resty's logging to hclog.
type hclogAdapter struct {
	logger hclog.Logger
}

func (a *hclogAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(fmt.Sprintf(format, v...))
}

func (a *hclogAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn(fmt.Sprintf(format, v...))
}

func (a *hclogAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug(fmt.Sprintf(format, v...))
}

func newClient(opts Options, logger hclog.Logger) *resty.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	wait := opts.RetryWait
	if wait <= 0 {
		wait = time.Second
	}
	maxWait := opts.RetryMaxWait
	if maxWait < wait {
		maxWait = 8 * wait
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(opts.MaxRetries).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(maxWait).
		SetHeader("Content-Type", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return r == nil || r.Request == nil || r.Request.Context().Err() == nil
			}
			code := r.StatusCode()
			return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
		})
	client.SetLogger(&hclogAdapter{logger: logger})
	return client
}

// statusError converts a non-2xx response into an error.
func statusError(provider string, resp *resty.Response) error {
	code := resp.StatusCode()
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned %d: %s", ErrAuth, provider, code, resp.String())
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", provider, ErrRateLimited)
	default:
		return fmt.Errorf("%s API error (status %d): %s", provider, code, resp.String())
	}
}
