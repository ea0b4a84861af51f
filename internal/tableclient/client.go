package tableclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/checkers-engine/internal/adapter/checkerspresenter"
	"github.com/park285/checkers-engine/internal/httpapi"
	"github.com/park285/checkers-engine/internal/ledger"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("checkers api error: status=%d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == fasthttp.StatusNotFound
}

// Client talks to the table server over JSON.
type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Create(ctx context.Context) (*checkerspresenter.View, error) {
	var v checkerspresenter.View
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/tables", nil, &v, false); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) Get(ctx context.Context, tableID string) (*checkerspresenter.View, error) {
	var v checkerspresenter.View
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/tables/"+tableID, nil, &v, true); err != nil {
		return nil, err
	}
	return &v, nil
}

// Pick is never retried: a pick that reached the server may have committed.
func (c *Client) Pick(ctx context.Context, tableID string, row, col int) (*checkerspresenter.View, error) {
	var v checkerspresenter.View
	req := httpapi.PickRequest{Row: row, Col: col}
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/tables/"+tableID+"/pick", req, &v, false); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) Reset(ctx context.Context, tableID string) (*checkerspresenter.View, error) {
	var v checkerspresenter.View
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/tables/"+tableID+"/reset", nil, &v, false); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) Remove(ctx context.Context, tableID string) error {
	return c.doJSON(ctx, fasthttp.MethodDelete, "/api/tables/"+tableID, nil, nil, false)
}

func (c *Client) Results(ctx context.Context, limit int) ([]*ledger.Result, error) {
	path := "/api/results"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp httpapi.ResultsResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) Tally(ctx context.Context) (ledger.Tally, error) {
	var t ledger.Tally
	err := c.doJSON(ctx, fasthttp.MethodGet, "/api/tally", nil, &t, true)
	return t, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	url := c.baseURL + path
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(url)
	req.Header.SetContentType("application/json")

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		deadline := c.computeDeadline(ctx)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			if attempt == attempts || !retry {
				return fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			err := &APIError{Status: status, Message: errorMessage(resp.Body())}
			if attempt == attempts || !retry || !shouldRetryStatus(status) {
				return err
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil && len(resp.Body()) > 0 {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// errorMessage pulls "error" out of a JSON error body, or falls back to the
// first bytes of the raw body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	s := string(body)
	if len(s) > 512 {
		s = s[:512]
	}
	return s
}
