// Package gateway is the client for the remote auction API. It is the only
// package that speaks HTTP to the outside world: one method per remote
// operation, each building the request, attaching auth headers when
// required, and normalizing the response into typed models or an
// apperror value.
//
// The decode step is a hard boundary: page handlers never see raw JSON.
// A 2xx response missing its "data" envelope is reported as malformed, a
// non-2xx response becomes a remote error carrying the API's own message,
// and a transport failure becomes a network error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/borisrunfast/auction-house/internal/apperror"
	"github.com/borisrunfast/auction-house/internal/model"
)

const defaultTimeout = 15 * time.Second

// Client talks to the remote auction API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a Client for the API at baseURL. apiKey is the provider key
// sent on authenticated calls; it may be empty for anonymous browsing.
func New(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

// envelope is the {data, meta} wrapper the API puts around every success
// payload. Data stays raw here; each operation decodes it into its own
// model type.
type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta *model.Meta     `json:"meta"`
}

// remoteError is the error body the API returns on non-2xx responses.
type remoteError struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	Status string `json:"status"`
}

// do performs a request and returns the decoded success envelope.
// token, when non-empty, is sent as a Bearer credential together with the
// provider API key. A nil envelope with nil error means 204 No Content.
func (c *Client) do(ctx context.Context, method, path, token string, body any) (*envelope, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gateway: encoding %s %s body: %w", method, path, err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("gateway: building %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-Noroff-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("gateway request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Network(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.remoteFailure(method, path, resp)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.logger.Error("gateway response undecodable",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Malformed("response body")
	}
	if env.Data == nil {
		return nil, apperror.Malformed("data")
	}
	return &env, nil
}

// remoteFailure turns a non-2xx response into an apperror.Remote, keeping
// the API's first error message when the body carries one.
func (c *Client) remoteFailure(method, path string, resp *http.Response) error {
	var remote remoteError
	message := ""
	if err := json.NewDecoder(resp.Body).Decode(&remote); err == nil && len(remote.Errors) > 0 {
		message = remote.Errors[0].Message
	}
	c.logger.Warn("gateway remote error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("message", message),
	)
	return apperror.Remote(resp.StatusCode, message)
}

// decode unmarshals an envelope's data into v, reporting a malformed
// response on failure.
func decode(env *envelope, v any) error {
	if err := json.Unmarshal(env.Data, v); err != nil {
		return apperror.Malformed("data")
	}
	return nil
}

// malformedField reports a 2xx payload whose named field was missing.
func malformedField(name string) error {
	return apperror.Malformed(name)
}
