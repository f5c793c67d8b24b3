package downloader

import (
	"io"
	"net/http"
	"time"

	"github.com/omnipath-client/internal/metrics"
	"github.com/sirupsen/logrus"
)

// RetryBaseDelay is the backoff before the first retry; it doubles on every attempt
var RetryBaseDelay = time.Second

var retryStatuses = map[int]bool{
	http.StatusRequestEntityTooLarge: true,
	http.StatusTooManyRequests:       true,
	http.StatusInternalServerError:   true,
	http.StatusBadGateway:            true,
	http.StatusServiceUnavailable:    true,
	http.StatusGatewayTimeout:        true,
}

// retryTransport retries idempotent requests on transport errors and on
// transient server statuses
type retryTransport struct {
	next    http.RoundTripper
	retries int
	metrics *metrics.Collector
	log     *logrus.Logger
}

func newRetryTransport(next http.RoundTripper, retries int, m *metrics.Collector, logger *logrus.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &retryTransport{next: next, retries: retries, metrics: m, log: logger}
}

// RoundTrip implements http.RoundTripper
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return t.next.RoundTrip(req)
	}

	ctx := req.Context()
	for attempt := 0; ; attempt++ {
		resp, err := t.next.RoundTrip(req)
		if attempt >= t.retries || ctx.Err() != nil || !shouldRetry(resp, err) {
			return resp, err
		}

		fields := logrus.Fields{"url": req.URL.Redacted(), "attempt": attempt + 1}
		if err != nil {
			fields["error"] = err.Error()
		} else {
			fields["status"] = resp.StatusCode
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		t.log.WithFields(fields).Debug("Retrying request")
		t.metrics.Retry()

		timer := time.NewTimer(RetryBaseDelay << attempt)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return retryStatuses[resp.StatusCode]
}
