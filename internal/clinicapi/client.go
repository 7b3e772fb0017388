// Package clinicapi is the typed client for the remote clinic REST API.
package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/careplus/frontdesk/pkg/circuitbreaker"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/logger"
	"github.com/careplus/frontdesk/pkg/metrics"
)

const maxBodySize = 4 << 20

type Config struct {
	BaseURL string
	Timeout time.Duration
	// Rate and Burst bound outgoing calls. Rate <= 0 disables the limiter.
	Rate  float64
	Burst int
	// BreakerFailures consecutive failures open the breaker for BreakerTimeout.
	BreakerFailures int
	BreakerTimeout  time.Duration
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuitbreaker.CircuitBreaker
	metrics    *metrics.Metrics
	log        *logger.Logger
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *HTTPClient) { c.metrics = m }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

func NewClient(cfg Config, opts ...Option) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	breakerTimeout := cfg.BreakerTimeout
	if breakerTimeout <= 0 {
		breakerTimeout = 30 * time.Second
	}

	c := &HTTPClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.Nop(),
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "clinic-api",
			MaxRequests: cfg.BreakerFailures,
			Timeout:     breakerTimeout,
			IsFailure:   countsAgainstBreaker,
		}),
	}
	if cfg.Rate > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// countsAgainstBreaker is true for failures that say the API is unhealthy.
// Business errors and missing records are answers, not outages.
func countsAgainstBreaker(err error) bool {
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	appErr, ok := errors.As(err)
	if !ok {
		return true
	}
	switch appErr.Code {
	case errors.ErrUnavailable:
		return true
	case errors.ErrUpstream:
		return appErr.Status >= http.StatusInternalServerError
	default:
		return false
	}
}

// Ready fails while the breaker is open.
func (c *HTTPClient) Ready() error {
	if c.breaker.State() == "open" {
		return errors.Unavailable(circuitbreaker.ErrOpen)
	}
	return nil
}

type call struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     interface{}
	resource string
}

// do runs a call through the limiter and breaker and returns the raw body of
// a 2xx response. All failures come back as *errors.AppError, except caller
// cancellation which is returned as context.Canceled.
func (c *HTTPClient) do(ctx context.Context, cl call) ([]byte, error) {
	start := time.Now()
	var body []byte

	err := c.breaker.Execute(func() error {
		var err error
		body, err = c.roundTrip(ctx, cl)
		return err
	})
	if stderrors.Is(err, circuitbreaker.ErrOpen) || stderrors.Is(err, circuitbreaker.ErrTooManyRequests) {
		err = errors.Unavailable(err)
	}

	c.observe(cl.op, start, err)
	return body, err
}

func (c *HTTPClient) roundTrip(ctx context.Context, cl call) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() == context.Canceled {
				return nil, ctx.Err()
			}
			return nil, errors.Unavailable(err)
		}
	}

	endpoint := c.baseURL + cl.path
	if len(cl.query) > 0 {
		endpoint += "?" + cl.query.Encode()
	}

	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return nil, errors.Internal(fmt.Errorf("encode %s request: %w", cl.op, err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, reader)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("build %s request: %w", cl.op, err))
	}
	req.Header.Set("Accept", "application/json, text/plain")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return nil, ctx.Err()
		}
		return nil, errors.Unavailable(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Unavailable(fmt.Errorf("read %s response: %w", cl.op, err))
	}

	if resp.StatusCode == http.StatusNotFound && cl.resource != "" {
		return nil, errors.NotFound(cl.resource, fmt.Errorf("%s %s: %s", cl.method, cl.path, strings.TrimSpace(string(data))))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text := strings.TrimSpace(string(data))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		return nil, errors.Upstream(resp.StatusCode, text)
	}
	return data, nil
}

func (c *HTTPClient) observe(op string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, errors.ErrUpstream):
		outcome = "rejected"
	case errors.Is(err, errors.ErrSchema):
		outcome = "schema"
	default:
		outcome = "error"
	}
	c.metrics.UpstreamRequests.WithLabelValues(op, outcome).Inc()
	c.metrics.UpstreamLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// getJSON decodes a lookup response into out.
func (c *HTTPClient) getJSON(ctx context.Context, cl call, out interface{}) error {
	cl.method = http.MethodGet
	data, err := c.do(ctx, cl)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Warn("Clinic API response did not match schema", "operation", cl.op, "error", err.Error())
		return errors.Schema(fmt.Sprintf("unexpected %s response", cl.op), err)
	}
	return nil
}

// send issues a mutation and returns the plain-text message of the response.
func (c *HTTPClient) send(ctx context.Context, cl call) (string, error) {
	data, err := c.do(ctx, cl)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func idPath(prefix string, id int64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}

func lookupPath(prefix, id string) string {
	return prefix + "/" + url.PathEscape(strings.TrimSpace(id))
}

func nameQuery(name string) url.Values {
	return url.Values{"name": []string{strings.TrimSpace(name)}}
}
