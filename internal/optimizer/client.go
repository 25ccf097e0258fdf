// Package optimizer talks to the external timetable optimization service.
package optimizer

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

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

const (
	optimizePath   = "/optimize"
	maxErrorBody   = 4 << 10
	defaultTimeout = 5 * time.Minute
)

// Failure reasons reported by Error.
const (
	ReasonTimeout   = "timeout"
	ReasonTransport = "transport"
	ReasonStatus    = "http_status"
	ReasonDecode    = "decode"
	ReasonRejected  = "rejected"
)

// Error describes why an optimizer call produced no usable solution.
type Error struct {
	Reason     string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := "optimizer " + e.Reason
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Config configures the client.
type Config struct {
	BaseURL string
	APIKey  string
	// Timeout caps a single call regardless of the requested solve time.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client posts optimization requests. It never retries: one call, one answer.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
	logger  *zap.Logger
}

// New builds a client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		http:    cfg.HTTPClient,
		logger:  logger,
	}
}

// Optimize sends req and waits at most MaxSolveTimeSeconds (bounded by the client timeout).
// A response with success=false is returned as an Error with ReasonRejected.
func (c *Client) Optimize(ctx context.Context, req models.OptimizationRequest) (*models.OptimizationResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.deadline(req.Parameters.MaxSolveTimeSeconds))
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Reason: ReasonTransport, Err: fmt.Errorf("encode request: %w", err)}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+optimizePath, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Reason: ReasonTransport, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &Error{Reason: ReasonTimeout, Err: err}
		}
		return nil, &Error{Reason: ReasonTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{Reason: ReasonStatus, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(snippet))}
	}

	var out models.OptimizationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &Error{Reason: ReasonDecode, Err: err}
	}
	c.logger.Debug("optimizer responded",
		zap.Bool("success", out.Success),
		zap.Duration("elapsed", time.Since(started)),
		zap.Float64("processing_time_seconds", out.ProcessingTimeSeconds),
	)
	if !out.Success || out.Solution == nil {
		return &out, &Error{Reason: ReasonRejected, Message: out.Message}
	}
	return &out, nil
}

func (c *Client) deadline(maxSolveSeconds int) time.Duration {
	if maxSolveSeconds <= 0 {
		return c.timeout
	}
	return min(time.Duration(maxSolveSeconds)*time.Second, c.timeout)
}
