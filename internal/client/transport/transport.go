// Package transport holds the http.RoundTripper decorators used by the API
// client: one attaches the bearer token and retries once on 403, the other
// sets the fixed request headers.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/roundup/internal/common"
	"github.com/dmitrijs2005/roundup/internal/logging"
)

// TokenSource is what AuthTransport needs from the session manager.
type TokenSource interface {
	GetValidAccessCredential(ctx context.Context) (string, error)
	InvalidateAndRefresh(ctx context.Context) (string, error)
}

// AuthTransport attaches "Authorization: Bearer <token>" to every request.
// A 403 answer forces one token refresh and one resend; the resend's
// response is returned as is.
type AuthTransport struct {
	Base   http.RoundTripper
	Tokens TokenSource
	Log    logging.Logger
}

func NewAuthTransport(base http.RoundTripper, tokens TokenSource, log logging.Logger) *AuthTransport {
	if log == nil {
		log = logging.Nop()
	}
	return &AuthTransport{Base: base, Tokens: tokens, Log: log}
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	token, err := t.Tokens.GetValidAccessCredential(ctx)
	if err != nil {
		closeBody(req)
		return nil, fmt.Errorf("access token: %w", err)
	}

	resp, err := t.base().RoundTrip(authorize(req, token))
	if err != nil || resp.StatusCode != http.StatusForbidden {
		return resp, err
	}

	retry, ok := rewind(req)
	if !ok {
		t.Log.Warn(ctx, "credential rejected, request body cannot be replayed", "method", req.Method, "path", req.URL.Path)
		return resp, nil
	}

	drain(resp)
	t.Log.Info(ctx, "credential rejected, refreshing", "method", req.Method, "path", req.URL.Path)

	token, err = t.Tokens.InvalidateAndRefresh(ctx)
	if err != nil {
		closeBody(retry)
		return nil, fmt.Errorf("refresh after 403: %w", err)
	}

	return t.base().RoundTrip(authorize(retry, token))
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// authorize returns a clone of req carrying the bearer token. RoundTrippers
// must not modify the caller's request.
func authorize(req *http.Request, token string) *http.Request {
	r := req.Clone(req.Context())
	r.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	return r
}

// rewind prepares req for a second send. Requests with a body but no
// GetBody cannot be replayed.
func rewind(req *http.Request) (*http.Request, bool) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	r := req.Clone(req.Context())
	r.Body = body
	return r, true
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func closeBody(req *http.Request) {
	if req != nil && req.Body != nil {
		_ = req.Body.Close()
	}
}

// HeadersTransport sets Accept and User-Agent on every request.
type HeadersTransport struct {
	Base      http.RoundTripper
	UserAgent string
}

func (t *HeadersTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set(common.AcceptHeaderName, common.JSONContentType)
	if t.UserAgent != "" {
		r.Header.Set(common.UserAgentHeaderName, t.UserAgent)
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}
