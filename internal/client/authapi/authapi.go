// Package authapi talks to the OAuth2 token endpoint of the bank: it turns
// a refresh token into a fresh access token.
package authapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/roundup/internal/common"
)

const tokenPath = "oauth/access-token"

// CodeInvalidGrant is the OAuth2 error code for a revoked or unknown
// refresh token.
const CodeInvalidGrant = "invalid_grant"

type RefreshRequest struct {
	RefreshToken string
	ClientID     string
	ClientSecret string
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Error is a non-2xx answer from the token endpoint.
type Error struct {
	Status      int
	Code        string
	Description string
}

func (e *Error) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("token endpoint: %d %s: %s", e.Status, e.Code, e.Description)
	}
	return fmt.Sprintf("token endpoint: %d %s", e.Status, e.Code)
}

func (e *Error) IsInvalidGrant() bool { return e.Code == CodeInvalidGrant }

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the token endpoint under baseURL. httpClient
// must not carry the authenticating transport.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

func (c *Client) Refresh(ctx context.Context, r RefreshRequest) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", r.RefreshToken)
	form.Set("client_id", r.ClientID)
	form.Set("client_secret", r.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", common.FormContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp.StatusCode, body)
	}

	var tr TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("parse token response: %w", common.ErrInvalidToken)
	}
	return &tr, nil
}

func parseError(status int, body []byte) *Error {
	var payload struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	e := &Error{Status: status}
	if json.Unmarshal(body, &payload) == nil {
		e.Code = payload.Error
		e.Description = payload.ErrorDescription
	}
	if e.Code == "" {
		e.Code = http.StatusText(status)
	}
	return e
}
