// Package httpretry wraps an HTTP client with exponential backoff and
// jitter so upstream reporting API calls survive transient failures and
// rate limiting.
package httpretry

import (
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// HTTPDoer is satisfied by *http.Client and *RetryClient, letting tests
// substitute a stub transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryClient retries transient failures with exponential backoff and
// full jitter. When the upstream answers 429 with a Retry-After header,
// that wait wins over the computed backoff.
type RetryClient struct {
	client     HTTPDoer
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewRetryClient wraps client with retry behavior. A nil client gets a
// default http.Client with a 30s timeout; maxRetries <= 0 means 3.
func NewRetryClient(client HTTPDoer, maxRetries int) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &RetryClient{
		client:     client,
		maxRetries: maxRetries,
		baseDelay:  1 * time.Second,
		maxDelay:   30 * time.Second,
	}
}

// Do executes the request, retrying on 429/5xx and transient network
// errors. Client errors (400, 401, 403, 404) and context cancellation
// are returned immediately. The final attempt's response is returned
// as-is so the caller can inspect status and body.
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= rc.maxRetries; attempt++ {
		if req.Context().Err() != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, req.Context().Err()
		}

		resp, err := rc.client.Do(req)
		if err != nil {
			lastErr = err
			if req.Context().Err() != nil {
				return nil, err
			}
			if attempt == rc.maxRetries {
				break
			}
			if !rc.wait(req, attempt+1, 0) {
				return nil, lastErr
			}
			continue
		}

		if !isRetryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if attempt == rc.maxRetries {
			return resp, nil
		}

		// Drain for connection reuse before retrying.
		serverWait := retryAfter(resp)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("httpretry: server returned retryable status %d", resp.StatusCode)

		if !rc.wait(req, attempt+1, serverWait) {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// wait sleeps before retry attempt n, rewinding the request body when
// one exists. Returns false when the context expired mid-wait.
func (rc *RetryClient) wait(req *http.Request, attempt int, serverWait time.Duration) bool {
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return false
		}
		req.Body = body
	}

	delay := rc.backoff(attempt)
	if serverWait > delay && serverWait <= rc.maxDelay {
		delay = serverWait
	}
	log.Printf("httpretry: retry %d/%d for %s %s%s in %s",
		attempt, rc.maxRetries, req.Method, req.URL.Host, req.URL.Path, delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-req.Context().Done():
		return false
	}
}

// backoff returns random(0, min(maxDelay, baseDelay * 2^(attempt-1))),
// floored at 100ms so a zero draw never busy-loops.
func (rc *RetryClient) backoff(attempt int) time.Duration {
	expDelay := float64(rc.baseDelay) * math.Pow(2, float64(attempt-1))
	if expDelay > float64(rc.maxDelay) {
		expDelay = float64(rc.maxDelay)
	}
	jittered := time.Duration(rand.Float64() * expDelay)
	if jittered < 100*time.Millisecond {
		jittered = 100 * time.Millisecond
	}
	return jittered
}

// retryAfter reads a Retry-After header given in whole seconds. Returns
// 0 when absent or unparseable.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
