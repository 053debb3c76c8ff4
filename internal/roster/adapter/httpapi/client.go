// Package httpapi is the single choke point for calls to the remote roster
// API. It attaches the session credential and classifies every failure.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"roster-console/internal/shared/advisory"
	sharederrors "roster-console/internal/shared/errors"
	"roster-console/internal/shared/logger"

	"github.com/tidwall/gjson"
)

const defaultMaxBodyBytes = 4 << 20

// TokenSource supplies the bearer credential, if any
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// ClientConfig configures the client
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxBodyBytes int64
	// HTTPClient overrides the default client; Timeout is then ignored
	HTTPClient *http.Client
}

// Client performs requests against the remote API. It never retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxBody    int64
	tokens     TokenSource
	notifier   advisory.Notifier
	log        logger.Logger
}

// NewClient creates a client. tokens and notifier may be nil.
func NewClient(cfg ClientConfig, tokens TokenSource, notifier advisory.Notifier, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxBody:    maxBody,
		tokens:     tokens,
		notifier:   notifier,
		log:        log.WithComponent("http-access"),
	}
}

// DoRaw performs the request and returns the raw body of a 2xx response.
// A 204 yields a nil body.
func (c *Client) DoRaw(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, sharederrors.NewTransportError("failed to encode request body", err).WithComponent("http-access")
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, sharederrors.NewTransportError("failed to create request", err).WithComponent("http-access")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if token, ok := c.tokens.Token(ctx); ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	log := c.log.WithContext(ctx).WithFields(map[string]interface{}{
		"method": method,
		"path":   path,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Errorf("API request failed: %v", err)
		return nil, sharederrors.NewTransportError(fmt.Sprintf("API request failed for %s", path), err).
			WithComponent("http-access")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBody))
		fired := c.notifier != nil && c.notifier.Fire(ctx, method+" "+path)
		log.Error("API rate limited: too many requests")
		return nil, sharederrors.NewRateLimitedError().WithComponent("http-access").
			WithDetail("path", path).
			WithDetail(advisory.DetailKey, fired)

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		raw, _, _ := readLimited(resp.Body, 64<<10)
		msg := serverMessage(raw)
		if msg == "" {
			msg = fmt.Sprintf("API Error: %d %s", resp.StatusCode, statusText(resp))
		}
		log.WithFields(map[string]interface{}{"status": resp.StatusCode}).Warnf("API error: %s", msg)
		return nil, sharederrors.NewAPIError(resp.StatusCode, msg).WithComponent("http-access").WithDetail("path", path)

	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	}

	raw, truncated, err := readLimited(resp.Body, c.maxBody)
	if err != nil {
		return nil, sharederrors.NewTransportError("failed to read response body", err).WithComponent("http-access")
	}
	if truncated {
		return nil, sharederrors.NewTransportError(
			fmt.Sprintf("response body exceeds %d bytes", c.maxBody), io.ErrUnexpectedEOF).WithComponent("http-access")
	}
	return raw, nil
}

// Do performs the request and decodes a non-empty 2xx body into out
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	raw, err := c.DoRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return sharederrors.NewTransportError(fmt.Sprintf("failed to decode response from %s", path), err).
			WithComponent("http-access")
	}
	return nil
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put performs a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// serverMessage extracts the "message" field of a JSON error body
func serverMessage(raw []byte) string {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return ""
	}
	msg := gjson.GetBytes(raw, "message")
	if msg.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(msg.String())
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// readLimited reads at most limit bytes and reports whether more remained
func readLimited(r io.Reader, limit int64) ([]byte, bool, error) {
	raw, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(raw)) > limit {
		return raw[:limit], true, nil
	}
	return raw, false, nil
}
