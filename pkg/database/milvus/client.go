// Package milvus registers the "milvus" driver. Milvus is reached through
// its RESTful API; Raw returns a *Client whose Post method the vector
// strategy calls.
package milvus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultPort = 19530

// Client is a minimal JSON-over-HTTP client for the Milvus v2 REST API.
type Client struct {
	BaseURL  string
	Token    string
	Username string
	Password string

	httpClient *http.Client
}

// NewClient returns a client for baseURL. token wins over username/password.
func NewClient(baseURL, token, username, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		Username:   username,
		Password:   password,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Post sends body as JSON to path and decodes the response into out.
// Untyped numbers in out arrive as json.Number so int64 ids stay exact.
// Non-2xx statuses are errors; API-level error codes are left to the caller.
func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if auth := c.authorization(); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("milvus returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

func (c *Client) authorization() string {
	switch {
	case c.Token != "":
		return "Bearer " + c.Token
	case c.Username != "":
		return "Bearer " + c.Username + ":" + c.Password
	}
	return ""
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
