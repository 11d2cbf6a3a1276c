package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/roundup/internal/client/models"
	"github.com/dmitrijs2005/roundup/internal/client/transport"
	"github.com/dmitrijs2005/roundup/internal/common"
	"github.com/dmitrijs2005/roundup/internal/logging"
)

// TimestampLayout is the ISO-8601 form the feed endpoint accepts.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient talks to the API under baseURL through httpClient, which is
// expected to carry the authenticating transport (see NewAuthenticatedHTTP).
func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// NewPlainHTTP is the client for unauthenticated calls such as the token
// endpoint: fixed headers only.
func NewPlainHTTP(userAgent string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &transport.HeadersTransport{Base: http.DefaultTransport, UserAgent: userAgent},
	}
}

// NewAuthenticatedHTTP stacks the bearer/retry transport on top of the
// fixed headers.
func NewAuthenticatedHTTP(tokens transport.TokenSource, userAgent string, timeout time.Duration, log logging.Logger) *http.Client {
	headers := &transport.HeadersTransport{Base: http.DefaultTransport, UserAgent: userAgent}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport.NewAuthTransport(headers, tokens, log),
	}
}

func (c *HTTPClient) PrimaryAccount(ctx context.Context) (*models.Account, error) {
	var resp struct {
		Accounts []models.Account `json:"accounts"`
	}
	if err := c.do(ctx, http.MethodGet, "api/v2/accounts", nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Accounts) == 0 {
		return nil, fmt.Errorf("accounts: %w", common.ErrNotFound)
	}
	return &resp.Accounts[0], nil
}

func (c *HTTPClient) AccountHolder(ctx context.Context) (*models.AccountHolder, error) {
	var h models.AccountHolder
	if err := c.do(ctx, http.MethodGet, "api/v2/account-holder/individual", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *HTTPClient) TransactionsBetween(ctx context.Context, accountUID, categoryUID string, from, to time.Time) ([]models.Transaction, error) {
	q := url.Values{}
	q.Set("minTransactionTimestamp", from.Format(TimestampLayout))
	q.Set("maxTransactionTimestamp", to.Format(TimestampLayout))

	path := fmt.Sprintf("api/v2/feed/account/%s/category/%s/transactions-between?%s",
		url.PathEscape(accountUID), url.PathEscape(categoryUID), q.Encode())

	var resp struct {
		FeedItems []models.Transaction `json:"feedItems"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.FeedItems, nil
}

func (c *HTTPClient) SavingsGoals(ctx context.Context, accountUID string) ([]models.SavingsGoal, error) {
	var resp struct {
		SavingsGoalList []models.SavingsGoal `json:"savingsGoalList"`
	}
	path := fmt.Sprintf("api/v2/account/%s/savings-goals", url.PathEscape(accountUID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.SavingsGoalList, nil
}

type createGoalRequest struct {
	Name     string       `json:"name"`
	Currency string       `json:"currency"`
	Target   models.Money `json:"target"`
}

func (c *HTTPClient) CreateSavingsGoal(ctx context.Context, accountUID, name string, target models.Money) (string, error) {
	var resp struct {
		SavingsGoalUID string `json:"savingsGoalUid"`
		Success        bool   `json:"success"`
	}
	path := fmt.Sprintf("api/v2/account/%s/savings-goals", url.PathEscape(accountUID))
	req := createGoalRequest{Name: name, Currency: target.Currency, Target: target}
	if err := c.do(ctx, http.MethodPut, path, req, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.SavingsGoalUID == "" {
		return "", fmt.Errorf("create savings goal: %w", ErrRejected)
	}
	return resp.SavingsGoalUID, nil
}

func (c *HTTPClient) AddMoney(ctx context.Context, accountUID, goalUID, transferUID string, amount models.Money) error {
	var resp struct {
		TransferUID string `json:"transferUid"`
		Success     bool   `json:"success"`
	}
	path := fmt.Sprintf("api/v2/account/%s/savings-goals/%s/add-money/%s",
		url.PathEscape(accountUID), url.PathEscape(goalUID), url.PathEscape(transferUID))
	body := struct {
		Amount models.Money `json:"amount"`
	}{Amount: amount}
	if err := c.do(ctx, http.MethodPut, path, body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("add money: %w", ErrRejected)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		// bytes.Reader gives the request a GetBody, so a 403 can be replayed
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", common.JSONContentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var oe *net.OpError
		if errors.As(err, &oe) {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
