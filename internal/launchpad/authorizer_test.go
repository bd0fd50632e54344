package launchpad

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"lpupload/internal/testsupport"
)

func TestRequestTokenBuildsAuthorizeURL(t *testing.T) {
	fake := testsupport.NewFakeLaunchpad(t)
	auth, err := NewAuthorizer(fake.URL(), "lpupload")
	if err != nil {
		t.Fatalf("NewAuthorizer returned error: %v", err)
	}

	rt, err := auth.RequestToken(context.Background())
	if err != nil {
		t.Fatalf("RequestToken returned error: %v", err)
	}
	if rt.Token != "request-token" || rt.Secret != "request-secret" {
		t.Fatalf("unexpected request token %+v", rt)
	}
	want := fake.URL() + "/+authorize-token?allow_permission=WRITE_PUBLIC&oauth_token=request-token"
	if rt.AuthorizeURL != want {
		t.Fatalf("unexpected authorize url %q", rt.AuthorizeURL)
	}
}

func TestExchangeTokenStates(t *testing.T) {
	fake := testsupport.NewFakeLaunchpad(t)
	auth, err := NewAuthorizer(fake.URL(), "lpupload")
	if err != nil {
		t.Fatalf("NewAuthorizer returned error: %v", err)
	}
	ctx := context.Background()
	rt, err := auth.RequestToken(ctx)
	if err != nil {
		t.Fatalf("RequestToken returned error: %v", err)
	}

	if _, err := auth.ExchangeToken(ctx, rt); !errors.Is(err, ErrAuthorizationPending) {
		t.Fatalf("expected pending, got %v", err)
	}

	fake.SetTokenDecision("decline")
	if _, err := auth.ExchangeToken(ctx, rt); !errors.Is(err, ErrAuthorizationDeclined) {
		t.Fatalf("expected declined, got %v", err)
	}

	fake.SetTokenDecision("approve")
	creds, err := auth.ExchangeToken(ctx, rt)
	if err != nil {
		t.Fatalf("ExchangeToken returned error: %v", err)
	}
	if creds.ConsumerKey != "lpupload" || creds.AccessToken != fake.AccessToken || creds.AccessSecret != fake.AccessSecret {
		t.Fatalf("unexpected credentials %+v", creds)
	}
	if creds.IssuedAt.IsZero() {
		t.Fatal("expected IssuedAt to be set")
	}
}

func TestWaitForApprovalPollsUntilApproved(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "not reviewed", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"oauth_token":"a","oauth_token_secret":"b"}`)
	}))
	defer server.Close()

	auth, err := NewAuthorizer(server.URL, "lpupload",
		WithAuthHTTPClient(server.Client()), WithPollInterval(5*time.Millisecond))
	if err != nil {
		t.Fatalf("NewAuthorizer returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	creds, err := auth.WaitForApproval(ctx, &RequestToken{Token: "r", Secret: "s"})
	if err != nil {
		t.Fatalf("WaitForApproval returned error: %v", err)
	}
	if creds.AccessToken != "a" || creds.AccessSecret != "b" {
		t.Fatalf("unexpected credentials %+v", creds)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 polls, got %d", got)
	}
}

func TestWaitForApprovalStopsOnContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not reviewed", http.StatusUnauthorized)
	}))
	defer server.Close()

	auth, err := NewAuthorizer(server.URL, "lpupload", WithPollInterval(5*time.Millisecond))
	if err != nil {
		t.Fatalf("NewAuthorizer returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err = auth.WaitForApproval(ctx, &RequestToken{Token: "r", Secret: "s"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNewAuthorizerValidatesInputs(t *testing.T) {
	if _, err := NewAuthorizer(" ", "lpupload"); err == nil || !strings.Contains(err.Error(), "web root") {
		t.Fatalf("expected web root error, got %v", err)
	}
	if _, err := NewAuthorizer("https://launchpad.net", ""); err == nil {
		t.Fatal("expected consumer key error")
	}
}
