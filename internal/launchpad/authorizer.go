package launchpad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultPollInterval = 3 * time.Second
	// accessLevel asks for permission to change public data, which add_file needs.
	accessLevel = "WRITE_PUBLIC"
)

// RequestToken is an unauthorized token awaiting browser approval.
type RequestToken struct {
	Token        string
	Secret       string
	AuthorizeURL string
}

// AuthorizerOption customises Authorizer construction.
type AuthorizerOption func(*Authorizer)

// WithAuthHTTPClient overrides the HTTP client used for token calls.
func WithAuthHTTPClient(client HTTPDoer) AuthorizerOption {
	return func(a *Authorizer) {
		a.http = client
	}
}

// WithPollInterval overrides how often WaitForApproval asks for the access token.
func WithPollInterval(d time.Duration) AuthorizerOption {
	return func(a *Authorizer) {
		if d > 0 {
			a.pollInterval = d
		}
	}
}

// Authorizer exchanges a consumer key for an access token using Launchpad's
// browser approval flow.
type Authorizer struct {
	webRoot      string
	consumerKey  string
	http         HTTPDoer
	pollInterval time.Duration
	now          func() time.Time
}

// NewAuthorizer builds an Authorizer for webRoot (for example https://launchpad.net).
func NewAuthorizer(webRoot, consumerKey string, opts ...AuthorizerOption) (*Authorizer, error) {
	webRoot = strings.TrimRight(strings.TrimSpace(webRoot), "/")
	consumerKey = strings.TrimSpace(consumerKey)
	if webRoot == "" {
		return nil, errors.New("launchpad web root is empty")
	}
	if consumerKey == "" {
		return nil, errors.New("launchpad consumer key is empty")
	}
	a := &Authorizer{
		webRoot:      webRoot,
		consumerKey:  consumerKey,
		http:         &http.Client{Timeout: 30 * time.Second},
		pollInterval: defaultPollInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// RequestToken obtains a fresh request token and the URL the user must visit.
func (a *Authorizer) RequestToken(ctx context.Context) (*RequestToken, error) {
	form := url.Values{
		"oauth_consumer_key":     {a.consumerKey},
		"oauth_signature_method": {signatureMethod},
		"oauth_signature":        {plaintextSignature("")},
	}
	values, err := a.post(ctx, "/+request-token", form)
	if err != nil {
		return nil, err
	}
	token := values.Get("oauth_token")
	secret := values.Get("oauth_token_secret")
	if token == "" || secret == "" {
		return nil, errors.New("launchpad: request token response missing oauth_token")
	}
	authorize := url.Values{
		"oauth_token":      {token},
		"allow_permission": {accessLevel},
	}
	return &RequestToken{
		Token:        token,
		Secret:       secret,
		AuthorizeURL: a.webRoot + "/+authorize-token?" + authorize.Encode(),
	}, nil
}

// ExchangeToken trades an approved request token for access credentials. It
// returns ErrAuthorizationPending while the token has not been reviewed and
// ErrAuthorizationDeclined when the user refused access.
func (a *Authorizer) ExchangeToken(ctx context.Context, rt *RequestToken) (Credentials, error) {
	form := url.Values{
		"oauth_token":            {rt.Token},
		"oauth_consumer_key":     {a.consumerKey},
		"oauth_signature_method": {signatureMethod},
		"oauth_signature":        {plaintextSignature(rt.Secret)},
	}
	values, err := a.post(ctx, "/+access-token", form)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusUnauthorized:
				return Credentials{}, ErrAuthorizationPending
			case http.StatusForbidden:
				return Credentials{}, ErrAuthorizationDeclined
			}
		}
		return Credentials{}, err
	}
	creds := Credentials{
		ConsumerKey:  a.consumerKey,
		AccessToken:  values.Get("oauth_token"),
		AccessSecret: values.Get("oauth_token_secret"),
		IssuedAt:     a.now().UTC(),
	}
	if !creds.Valid() {
		return Credentials{}, errors.New("launchpad: access token response missing oauth_token")
	}
	return creds, nil
}

// WaitForApproval polls ExchangeToken until the user approves or declines, or
// ctx ends.
func (a *Authorizer) WaitForApproval(ctx context.Context, rt *RequestToken) (Credentials, error) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()
	for {
		creds, err := a.ExchangeToken(ctx, rt)
		if err == nil {
			return creds, nil
		}
		if !errors.Is(err, ErrAuthorizationPending) {
			return Credentials{}, err
		}
		select {
		case <-ctx.Done():
			return Credentials{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (a *Authorizer) post(ctx context.Context, path string, form url.Values) (url.Values, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webRoot+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("launchpad token request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse(req, resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType == "application/json" {
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("decode token response: %w", err)
		}
		values := url.Values{}
		for k, v := range payload {
			if s, ok := v.(string); ok {
				values.Set(k, s)
			}
		}
		return values, nil
	}
	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return values, nil
}
