// Package runway implements the generation API port against the Runway
// image-to-video HTTP API.
package runway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/tvnz/video-generator/internal/infra/config"
	"github.com/tvnz/video-generator/internal/model"
	"github.com/tvnz/video-generator/internal/port/outbound"
	apperrors "github.com/tvnz/video-generator/internal/utils/errors"
	"github.com/tvnz/video-generator/internal/utils/metrics"
)

const (
	// VersionHeader carries the pinned API version on every call.
	VersionHeader = "X-Runway-Version"

	opSubmit = "submit"
	opStatus = "status"
)

// Client calls the Runway API.
type Client struct {
	http    *http.Client
	cfg     config.RunwayConfig
	baseURL string
	breaker *gobreaker.CircuitBreaker[*model.UpstreamResponse]
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewClient creates a Runway client. m may be nil.
func NewClient(httpClient *http.Client, cfg config.RunwayConfig, m *metrics.Metrics, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.BreakerFailureThreshold == 0 {
		cfg.BreakerFailureThreshold = 5
	}

	c := &Client{
		http:    httpClient,
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		metrics: m,
		logger:  logger.Named("runway"),
	}

	c.breaker = gobreaker.NewCircuitBreaker[*model.UpstreamResponse](gobreaker.Settings{
		Name:        "runway",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
		// Only transport failures trip the breaker. Any HTTP response,
		// whatever its status, means the upstream is reachable.
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransportFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Info("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			if c.metrics != nil {
				c.metrics.SetBreakerOpen(to == gobreaker.StateOpen)
			}
		},
	})

	return c
}

// Configured reports whether an API token is set.
func (c *Client) Configured() bool {
	return c.cfg.APIToken != ""
}

// SubmitImageToVideo posts a generation request.
func (c *Client) SubmitImageToVideo(ctx context.Context, req *model.GenerationRequest) (*model.UpstreamResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, opSubmit, http.MethodPost, "/image_to_video", body)
}

// GetTask fetches a task by id. The id is path-escaped.
func (c *Client) GetTask(ctx context.Context, taskID string) (*model.UpstreamResponse, error) {
	return c.do(ctx, opStatus, http.MethodGet, "/tasks/"+url.PathEscape(taskID), nil)
}

// do runs one logical call under the breaker, retrying dial failures until
// the per-call deadline.
func (c *Client) do(ctx context.Context, operation, method, path string, body []byte) (*model.UpstreamResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*model.UpstreamResponse, error) {
		return c.sendWithRetry(ctx, method, path, body)
	})
	outcome, err := c.classify(ctx, operation, resp, err)

	if c.metrics != nil {
		c.metrics.RecordUpstreamRequest(operation, outcome, time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) sendWithRetry(ctx context.Context, method, path string, body []byte) (*model.UpstreamResponse, error) {
	b := backoff.NewExponentialBackOff()
	if c.cfg.RetryInitialInterval > 0 {
		b.InitialInterval = c.cfg.RetryInitialInterval
	}
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.cfg.MaxRetries), ctx)

	var resp *model.UpstreamResponse
	operation := func() error {
		r, err := c.send(ctx, method, path, body)
		if err != nil {
			if isDialError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		resp = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("upstream dial failed, retrying",
			zap.String("path", path),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) (*model.UpstreamResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set(VersionHeader, c.cfg.APIVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("upstream response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)))

	return &model.UpstreamResponse{StatusCode: resp.StatusCode, Body: data}, nil
}

// classify maps the result of a call to a metrics outcome and the error
// reported to callers.
func (c *Client) classify(ctx context.Context, operation string, resp *model.UpstreamResponse, err error) (string, error) {
	switch {
	case err == nil && resp.OK():
		return metrics.OutcomeSuccess, nil
	case err == nil:
		return metrics.OutcomeHTTPError, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.logger.Warn("upstream call rejected by circuit breaker", zap.String("operation", operation))
		return metrics.OutcomeUnavailable, apperrors.ServiceUnavailable("Upstream service unavailable").WithDetails(err.Error()).WithError(err)
	case isTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		c.logger.Warn("upstream call timed out", zap.String("operation", operation), zap.Error(err))
		return metrics.OutcomeTimeout, apperrors.Timeout("Upstream request timed out").WithDetails(err.Error()).WithError(err)
	default:
		c.logger.Error("upstream call failed", zap.String("operation", operation), zap.Error(err))
		return metrics.OutcomeError, fmt.Errorf("runway %s: %w", operation, err)
	}
}

func isDialError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isTransportFailure(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) || isTimeout(err)
}

var _ outbound.GenerationAPIPort = (*Client)(nil)
