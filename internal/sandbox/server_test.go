package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/roundup/internal/logging"
	"github.com/dmitrijs2005/roundup/internal/sandbox/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	var c config.Config
	c.LoadDefaults()
	c.Addr = "127.0.0.1:0"
	return &c
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(testConfig(), logging.Nop())
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postToken(t *testing.T, ts *httptest.Server, form url.Values) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.PostForm(ts.URL+"/oauth/access-token", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func tokenForm(refresh string) url.Values {
	c := testConfig()
	return url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refresh},
		"client_id":     {c.ClientID},
		"client_secret": {c.ClientSecret},
	}
}

func accessToken(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, body := postToken(t, ts, tokenForm(testConfig().SeedRefreshToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return body["access_token"].(string)
}

func call(t *testing.T, method, u, token string, body any) *http.Response {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, u, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestTokenEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := postToken(t, ts, tokenForm(testConfig().SeedRefreshToken))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer", body["token_type"])
	assert.Equal(t, float64(300), body["expires_in"])
	assert.NotEmpty(t, body["refresh_token"])

	resp, body = postToken(t, ts, tokenForm(testConfig().SeedRefreshToken))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_grant", body["error"])

	bad := tokenForm("whatever")
	bad.Set("client_secret", "nope")
	resp, body = postToken(t, ts, bad)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_client", body["error"])

	grant := tokenForm("whatever")
	grant.Set("grant_type", "password")
	resp, body = postToken(t, ts, grant)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unsupported_grant_type", body["error"])
}

func TestBearerRequired(t *testing.T) {
	s, ts := newTestServer(t)
	token := accessToken(t, ts)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing", "", http.StatusForbidden},
		{"garbage", "not-a-jwt", http.StatusForbidden},
		{"valid", token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, http.MethodGet, ts.URL+"/api/v2/accounts", tt.token, nil)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}

	s.Tokens().RevokeAccessTokens()
	resp := call(t, http.MethodGet, ts.URL+"/api/v2/accounts", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestResources(t *testing.T) {
	s, ts := newTestServer(t)
	token := accessToken(t, ts)
	acc := s.Bank().Account()

	resp := call(t, http.MethodGet, ts.URL+"/api/v2/account-holder/individual", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var holder map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&holder))
	assert.Equal(t, "Alex", holder["firstName"])

	q := url.Values{}
	now := time.Now()
	q.Set("minTransactionTimestamp", now.AddDate(0, 0, -8).Format(time.RFC3339))
	q.Set("maxTransactionTimestamp", now.Add(time.Minute).Format("2006-01-02T15:04:05.000Z07:00"))
	feedURL := ts.URL + "/api/v2/feed/account/" + acc.AccountUID + "/category/" + acc.DefaultCategory + "/transactions-between?" + q.Encode()
	resp = call(t, http.MethodGet, feedURL, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var feed struct {
		FeedItems []map[string]any `json:"feedItems"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&feed))
	assert.Len(t, feed.FeedItems, 5)

	resp = call(t, http.MethodGet, strings.Split(feedURL, "?")[0]+"?minTransactionTimestamp=yesterday", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	goalsURL := ts.URL + "/api/v2/account/" + acc.AccountUID + "/savings-goals"
	resp = call(t, http.MethodPut, goalsURL, token, map[string]any{
		"name": "Trip", "currency": "GBP", "target": map[string]any{"currency": "GBP", "minorUnits": 5000},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created struct {
		SavingsGoalUID string `json:"savingsGoalUid"`
		Success        bool   `json:"success"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.True(t, created.Success)

	resp = call(t, http.MethodPut, goalsURL+"/"+created.SavingsGoalUID+"/add-money/tr-1", token, map[string]any{
		"amount": map[string]any{"currency": "GBP", "minorUnits": 125},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, http.MethodGet, goalsURL, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var goals struct {
		SavingsGoalList []map[string]any `json:"savingsGoalList"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&goals))
	require.Len(t, goals.SavingsGoalList, 1)
	assert.Equal(t, float64(125), goals.SavingsGoalList[0]["totalSaved"].(map[string]any)["minorUnits"])

	resp = call(t, http.MethodGet, ts.URL+"/api/v2/account/nope/savings-goals", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = call(t, http.MethodPut, goalsURL, token, map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRun_StopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	cfg := testConfig()
	cfg.Addr = addr
	s := NewServer(cfg, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		c, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		_ = c.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
