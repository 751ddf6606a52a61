package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// AuthSession is the result of a successful sign-in.
type AuthSession struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// SignIn authenticates with email and password. On success the client
// holds the access token for all subsequent requests and the signed-in
// profile id is returned.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	reqURL := c.baseURL + "/auth/v1/token?grant_type=password"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("auth returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var session AuthSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	c.setAccessToken(session.AccessToken)
	c.log.Info("signed in", zap.String("profile_id", session.User.ID))
	return session.User.ID, nil
}

// SignOut revokes the session token. The local token is cleared even if
// the revocation call fails, so the client never keeps using a token the
// user asked to drop.
func (c *Client) SignOut(ctx context.Context) error {
	token := c.AccessToken()
	if token == "" {
		return nil
	}
	c.setAccessToken("")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("auth returned status %d", resp.StatusCode)
	}
	c.log.Info("signed out")
	return nil
}
