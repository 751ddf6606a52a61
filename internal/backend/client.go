// Package backend is the client for the hosted backend service: auth,
// table reads/writes, storage uploads, and the realtime change feed.
// All persistence lives on the other side of this package.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned when a requested row does not exist. Callers
// are expected to branch on it rather than on error text.
var ErrNotFound = errors.New("not found")

// ErrNotAuthenticated is returned when an operation requires a signed-in
// session and no access token is held.
var ErrNotAuthenticated = errors.New("not authenticated")

// Client provides access to the backend REST, auth, storage and realtime
// surfaces. A single instance is shared by the whole application.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	log        *zap.Logger

	mu          sync.RWMutex
	accessToken string
}

// NewClient creates a new backend client.
func NewClient(baseURL, anonKey string, log *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// AccessToken returns the current access token ("" when signed out).
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *Client) setAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

// setHeaders applies the API key and bearer token. The anon key doubles
// as the bearer before sign-in, matching the service's auth model.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.anonKey)
	token := c.AccessToken()
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
}

// restURL builds a REST endpoint URL for a table with the given query.
func (c *Client) restURL(table string, query url.Values) string {
	u := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// getJSON issues a GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// writeJSON issues a POST/PATCH/DELETE with an optional JSON body and
// discards the response body on success.
func (c *Client) writeJSON(ctx context.Context, method, rawURL string, body any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	// Writes don't need the mutated rows back
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// rpc calls a stored procedure under /rest/v1/rpc.
func (c *Client) rpc(ctx context.Context, name string, args any) error {
	return c.writeJSON(ctx, http.MethodPost, c.baseURL+"/rest/v1/rpc/"+name, args)
}
