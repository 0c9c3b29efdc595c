package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const pathPrefix = "/api"

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token() string
}

// Client is the DormHop REST client. Every method is independent and has
// no effect on local state; failures come back as *NetworkError,
// *ServerError or ErrEmptyBody. The client never retries.
type Client struct {
	httpClient *resty.Client
	tokens     TokenSource
	logger     *zap.Logger
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: httpClient,
		logger:     logger,
	}
}

// WithTokens returns a client sharing the same transport that authenticates
// with tokens.
func (c *Client) WithTokens(tokens TokenSource) *Client {
	cp := *c
	cp.tokens = tokens
	return &cp
}

type call struct {
	op         string
	method     string
	path       string
	public     bool
	pathParams map[string]string
	query      map[string]string
	body       any
}

// do executes one request and decodes a 2xx body into result when result is non-nil.
func (c *Client) do(ctx context.Context, cl call, result any) error {
	req := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString())

	if !cl.public && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.SetAuthToken(token)
		}
	}
	if len(cl.pathParams) > 0 {
		req.SetPathParams(cl.pathParams)
	}
	if len(cl.query) > 0 {
		req.SetQueryParams(cl.query)
	}
	if cl.body != nil {
		req.SetBody(cl.body)
	}

	resp, err := req.Execute(cl.method, pathPrefix+cl.path)
	if err != nil {
		c.logger.Warn("API call failed",
			zap.String("op", cl.op),
			zap.Error(err),
		)
		return &NetworkError{Op: cl.op, Err: err}
	}

	if !resp.IsSuccess() {
		srvErr := &ServerError{
			Op:         cl.op,
			StatusCode: resp.StatusCode(),
			Message:    errorMessage(resp.Body()),
		}
		c.logger.Warn("API returned error",
			zap.String("op", cl.op),
			zap.Int("status_code", srvErr.StatusCode),
			zap.String("msg", srvErr.Message),
		)
		return srvErr
	}

	c.logger.Debug("API call ok",
		zap.String("op", cl.op),
		zap.Int("status_code", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()),
	)

	if result == nil {
		return nil
	}
	return decode(cl.op, resp.Body(), result)
}

func decode(op string, body []byte, result any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%s: %w", op, ErrEmptyBody)
	}
	if err := json.Unmarshal(trimmed, result); err != nil {
		return fmt.Errorf("%s: %w: %v", op, ErrEmptyBody, err)
	}
	return nil
}

// errorMessage pulls {"error": "..."} or {"message": "..."} out of an error body.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
