package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "neurocal/internal/platform/errors"
	"neurocal/internal/platform/id"
)

// RunHeader carries the calibration run id on every request made for that run.
const RunHeader = "X-Calibration-Run"

// Client is a small JSON client bound to one backend base URL.
// Transport failures, non-2xx statuses and undecodable bodies all wrap ErrNetwork.
type Client struct {
	baseURL string
	client  *http.Client
	headers map[string]string

	inflight sync.WaitGroup
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:          4,
				MaxIdleConnsPerHost:   4,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: timeout,
			},
		},
		headers: map[string]string{"Content-Type": "application/json"},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Do sends body as JSON (when non-nil) and decodes the response into out (when non-nil).
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, endpoint, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if run := id.RunFrom(ctx); run != "" {
		req.Header.Set(RunHeader, run)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", apperrors.ErrNetwork, method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %v", apperrors.ErrNetwork, method, endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s returned status %d: %s", apperrors.ErrNetwork, method, endpoint, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if len(bytes.TrimSpace(raw)) == 0 && out == nil {
		return nil
	}
	if out == nil {
		out = &json.RawMessage{}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", apperrors.ErrNetwork, method, endpoint, err)
	}
	return nil
}

// Post fires a request and does not wait for it. Used where the caller is
// going away and cannot block on the answer. Values on ctx are kept, its
// cancellation is not. Drain waits for these before the process exits.
func (c *Client) Post(ctx context.Context, endpoint string, body any, timeout time.Duration, done func(error)) {
	ctx = context.WithoutCancel(ctx)
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		err := c.Do(ctx, http.MethodPost, endpoint, body, nil)
		if done != nil {
			done(err)
		}
	}()
}

// Drain blocks until every pending Post has finished or timeout elapses.
// It reports whether everything finished.
func (c *Client) Drain(timeout time.Duration) bool {
	finished := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return true
	case <-time.After(timeout):
		return false
	}
}
