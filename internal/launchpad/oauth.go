package launchpad

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const signatureMethod = "PLAINTEXT"

// Credentials holds an OAuth access token issued by Launchpad. Launchpad
// consumers have no secret, so the PLAINTEXT signature is "&" followed by the
// escaped token secret.
type Credentials struct {
	ConsumerKey  string    `json:"consumer_key"`
	AccessToken  string    `json:"access_token"`
	AccessSecret string    `json:"access_secret"`
	IssuedAt     time.Time `json:"issued_at,omitempty"`
}

// Valid reports whether the credentials can sign requests.
func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.ConsumerKey) != "" &&
		strings.TrimSpace(c.AccessToken) != "" &&
		strings.TrimSpace(c.AccessSecret) != ""
}

func plaintextSignature(tokenSecret string) string {
	return "&" + url.QueryEscape(tokenSecret)
}

// authorizationHeader renders the OAuth header for a signed API request.
func (c Credentials) authorizationHeader(realm string, now time.Time) string {
	params := [][2]string{
		{"oauth_consumer_key", c.ConsumerKey},
		{"oauth_token", c.AccessToken},
		{"oauth_signature_method", signatureMethod},
		{"oauth_signature", plaintextSignature(c.AccessSecret)},
		{"oauth_timestamp", strconv.FormatInt(now.Unix(), 10)},
		{"oauth_nonce", uuid.NewString()},
		{"oauth_version", "1.0"},
	}
	var b strings.Builder
	fmt.Fprintf(&b, "OAuth realm=%q", realm)
	for _, p := range params {
		fmt.Fprintf(&b, ", %s=%q", p[0], url.QueryEscape(p[1]))
	}
	return b.String()
}

// realmFor derives the OAuth realm ("https://api.launchpad.net/") from a service URL.
func realmFor(serviceURL string) string {
	parsed, err := url.Parse(serviceURL)
	if err != nil || parsed.Host == "" {
		return serviceURL
	}
	return parsed.Scheme + "://" + parsed.Host + "/"
}
