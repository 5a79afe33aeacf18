package httpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client issues HTTP GET requests with per-request headers. Implementations own
// timeout and retry policy so callers stay transport-agnostic.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// Response exposes the subset of an HTTP response the harvesting code needs.
type Response interface {
	StatusCode() int
	Body() []byte
	Attempts() int
}

// Option tunes a resty client beyond its request timeout.
type Option func(*resty.Client)

// WithRetries configures the total attempt budget and the fixed wait between
// attempts. attempts counts the first try, so attempts=2 means one retry.
func WithRetries(attempts int, backoff time.Duration) Option {
	return func(c *resty.Client) {
		if attempts < 1 {
			attempts = 1
		}
		c.SetRetryCount(attempts - 1)
		c.SetRetryWaitTime(backoff)
		c.SetRetryMaxWaitTime(backoff)
		c.AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() < 200 || r.StatusCode() > 299
		})
	}
}

// restyClient implements Client using go-resty.
type restyClient struct {
	client *resty.Client
}

// NewRestyClient returns a tuned resty-backed Client. The timeout applies per
// attempt and aborts the in-flight request when it elapses.
func NewRestyClient(timeout time.Duration, opts ...Option) Client {
	c := resty.New().SetTimeout(timeout)
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return &restyClient{client: c}
}

// Get issues a GET request with the provided headers.
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := c.client.R().SetContext(ctx)
	for k, v := range headers {
		req.SetHeader(k, v)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	return &restyResponse{resp: resp}, nil
}

// restyResponse adapts resty.Response to the Response interface.
type restyResponse struct {
	resp *resty.Response
}

func (r *restyResponse) StatusCode() int { return r.resp.StatusCode() }
func (r *restyResponse) Body() []byte    { return r.resp.Body() }
func (r *restyResponse) Attempts() int   { return r.resp.Request.Attempt }
