// Package client talks to the velocity model backend.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/h2non/filetype"

	"github.com/nzcvm/nzcvm-webapp/internal/geodesy"
	"github.com/nzcvm/nzcvm-webapp/internal/vmconfig"
)

// RuntimeRefusedError is returned by Submit, before any request is made,
// when the estimated runtime is over the ceiling.
type RuntimeRefusedError struct {
	EstimatedSeconds float64
	MaxSeconds       float64
}

func (e *RuntimeRefusedError) Error() string {
	return fmt.Sprintf("estimated runtime of %.0f seconds exceeds the %.0f second limit: "+
		"download the configuration file and run the velocity model generator locally",
		e.EstimatedSeconds, e.MaxSeconds)
}

// APIError is a non-success response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

var ErrUnexpectedContent = errors.New("unexpected response content")

type Client struct {
	baseURL       string
	http          *http.Client
	runtime       geodesy.RuntimeModel
	maxRuntime    float64
	token         string
	retryInterval time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithRuntimeModel(m geodesy.RuntimeModel) Option {
	return func(c *Client) { c.runtime = m }
}

func WithMaxRuntimeSeconds(s float64) Option {
	return func(c *Client) { c.maxRuntime = s }
}

// WithToken sends a bearer token with submissions.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithRetryInterval sets the first wait between overlay fetch attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.retryInterval = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          http.DefaultClient,
		runtime:       geodesy.DefaultRuntimeModel,
		maxRuntime:    600,
		retryInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit posts rec to the run endpoint and copies the returned archive to
// w. It is never retried.
func (c *Client) Submit(ctx context.Context, rec vmconfig.Record, w io.Writer) (int64, error) {
	if err := rec.Validate(); err != nil {
		return 0, err
	}
	grid, _ := rec.Grid()
	if est := c.runtime.Estimate(grid.TotalPoints); est > c.maxRuntime {
		return 0, &RuntimeRefusedError{EstimatedSeconds: est, MaxSeconds: c.maxRuntime}
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/run-nzcvm", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, readAPIError(resp)
	}

	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err != nil || mt != "application/zip" {
		return 0, fmt.Errorf("%w: content type %q", ErrUnexpectedContent, resp.Header.Get("Content-Type"))
	}

	br := bufio.NewReader(resp.Body)
	head, _ := br.Peek(262)
	kind, err := filetype.Match(head)
	if err != nil || kind.Extension != "zip" {
		return 0, fmt.Errorf("%w: body is not a zip archive", ErrUnexpectedContent)
	}
	return io.Copy(w, br)
}

func readAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}
