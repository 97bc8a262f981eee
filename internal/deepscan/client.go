package deepscan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"leaf-doctor/internal/types"
	"leaf-doctor/internal/version"
)

const (
	// DefaultTimeout bounds one scan call.
	DefaultTimeout = 30 * time.Second

	scanPath        = "/scan"
	maxResponseBody = 1 << 20
)

// Request is one deep scan submission.
type Request struct {
	UserID string
	Tier   Tier
	Image  []byte
}

// Scanner runs a remote deep scan.
type Scanner interface {
	Scan(ctx context.Context, req Request) (*Response, error)
}

// Client calls the deep scan HTTP service behind a circuit breaker.
// Failed calls are not retried.
type Client struct {
	baseURL   string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*Response]
	timeout   time.Duration
	userAgent string
	logger    *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying http client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClientLogger sets the client logger.
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    http.DefaultClient,
		timeout:   DefaultTimeout,
		userAgent: version.UserAgent(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        "deepscan",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			// A quota refusal is a healthy upstream.
			return err == nil || errors.Is(err, types.ErrQuotaExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

// Scan submits the image and decodes the answer. Quota refusals map to
// KindQuotaExceeded and every other failure to KindServiceUnavailable.
func (c *Client) Scan(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestID := uuid.NewString()
	resp, err := c.breaker.Execute(func() (*Response, error) {
		return c.do(ctx, req, requestID)
	})
	if err == nil {
		return resp, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, types.NewError(types.KindServiceUnavailable, "circuit breaker is open", err)
	}
	if !errors.Is(err, types.ErrQuotaExceeded) {
		c.logger.Warn("deep scan failed",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
	return nil, err
}

func (c *Client) do(ctx context.Context, req Request, requestID string) (*Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+scanPath, bytes.NewReader(req.Image))
	if err != nil {
		return nil, types.NewError(types.KindServiceUnavailable, "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", mimetype.Detect(req.Image).String())
	httpReq.Header.Set("X-User-ID", req.UserID)
	httpReq.Header.Set("X-Subscription-Tier", string(req.Tier))
	httpReq.Header.Set("X-Request-ID", requestID)
	httpReq.Header.Set("User-Agent", c.userAgent)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.KindServiceUnavailable, "upstream request failed", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, types.NewError(types.KindServiceUnavailable, "failed to read response", err)
	}

	switch {
	case httpResp.StatusCode == http.StatusForbidden || httpResp.StatusCode == http.StatusTooManyRequests:
		return nil, types.NewError(types.KindQuotaExceeded, upstreamMessage(body, "deep scan limit reached"), nil)
	case httpResp.StatusCode >= 500:
		return nil, types.NewError(types.KindServiceUnavailable,
			fmt.Sprintf("upstream returned %d", httpResp.StatusCode), nil)
	case httpResp.StatusCode >= 400:
		return nil, types.NewError(types.KindServiceUnavailable,
			fmt.Sprintf("upstream rejected request with %d", httpResp.StatusCode), nil)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, types.NewError(types.KindServiceUnavailable, "invalid response from analysis engine", err)
	}
	if out.Status == "error" {
		return nil, types.NewError(types.KindServiceUnavailable, upstreamMessage(body, "analysis failed"), nil)
	}
	return &out, nil
}

// upstreamMessage pulls "error" or "message" out of a JSON error body.
func upstreamMessage(body []byte, fallback string) string {
	var msg struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &msg) == nil {
		if msg.Error != "" {
			return msg.Error
		}
		if msg.Message != "" {
			return msg.Message
		}
	}
	return fallback
}
