// Package client talks to the duty tracker HTTP API.
//
// Every operation validates what it sends and what it receives. Failures of
// any kind are reported as one fixed error per operation; the underlying
// cause is only logged at debug level.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	model "duty-tracker.com/duty-tracker/pkg/models"
)

var (
	ErrFetchDuties = errors.New("error fetching duties")
	ErrCreateDuty  = errors.New("error creating duty")
	ErrUpdateDuty  = errors.New("error updating duty")
	ErrDeleteDuty  = errors.New("error deleting duty")
)

const DefaultTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a client for the API rooted at baseURL, for example
// http://localhost:4000/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) List(ctx context.Context) ([]model.Duty, error) {
	body, err := c.do(ctx, http.MethodGet, "/duties", nil)
	if err != nil {
		return nil, c.fail(ErrFetchDuties, err)
	}

	duties, err := model.ParseDuties(body)
	if err != nil {
		return nil, c.fail(ErrFetchDuties, err)
	}
	return duties, nil
}

func (c *Client) Create(ctx context.Context, name string) (*model.Duty, error) {
	payload := model.DutyCreate{Name: name}
	if err := payload.Validate(); err != nil {
		return nil, c.fail(ErrCreateDuty, err)
	}

	body, err := c.do(ctx, http.MethodPost, "/duties", payload)
	if err != nil {
		return nil, c.fail(ErrCreateDuty, err)
	}

	duty, err := model.ParseDuty(body)
	if err != nil {
		return nil, c.fail(ErrCreateDuty, err)
	}
	return &duty, nil
}

func (c *Client) Update(ctx context.Context, id int64, name string) (*model.Duty, error) {
	payload := model.DutyCreate{Name: name}
	if err := payload.Validate(); err != nil {
		return nil, c.fail(ErrUpdateDuty, err)
	}

	body, err := c.do(ctx, http.MethodPut, dutyPath(id), payload)
	if err != nil {
		return nil, c.fail(ErrUpdateDuty, err)
	}

	duty, err := model.ParseDuty(body)
	if err != nil {
		return nil, c.fail(ErrUpdateDuty, err)
	}
	return &duty, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	if _, err := c.do(ctx, http.MethodDelete, dutyPath(id), nil); err != nil {
		return c.fail(ErrDeleteDuty, err)
	}
	return nil
}

func dutyPath(id int64) string {
	return "/duties/" + strconv.FormatInt(id, 10)
}

func (c *Client) fail(opErr, cause error) error {
	c.logger.Debug(opErr.Error(), zap.Error(cause))
	return opErr
}

// do sends the request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
