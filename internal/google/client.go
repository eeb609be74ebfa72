// ABOUTME: Best-effort REST client for the Google Wallet objects API
// ABOUTME: Upsert failures are modeled as explicit outcomes, never as fatal errors

package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sbcwallet/passbridge/internal/config"
)

// UpsertStatus classifies the result of a wallet API upsert.
type UpsertStatus string

// Upsert outcomes.
const (
	UpsertCreated UpsertStatus = "created"
	UpsertUpdated UpsertStatus = "updated"
	UpsertSkipped UpsertStatus = "skipped"
)

// UpsertOutcome is the explicit result of a best-effort upsert: callers
// can surface degraded-mode status instead of relying on log output.
type UpsertOutcome struct {
	Status UpsertStatus
	Reason string // set when Status is UpsertSkipped
}

// skipped builds a skipped outcome with a reason.
func skipped(format string, args ...any) UpsertOutcome {
	return UpsertOutcome{Status: UpsertSkipped, Reason: fmt.Sprintf(format, args...)}
}

// Client performs class/object upserts against the Google Wallet REST
// API. Without a service account every upsert is skipped; the save URL
// pipeline still completes because the JWT can embed the object inline.
type Client struct {
	baseURL string
	account *config.ServiceAccount
	http    *http.Client
}

// NewClient creates a wallet API client with a bounded request timeout.
func NewClient(cfg config.GoogleConfig, account *config.ServiceAccount) *Client {
	timeout := cfg.UpsertTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.APIBaseURL,
		account: account,
		http:    &http.Client{Timeout: timeout},
	}
}

// Upsert POSTs the payload to the given resource collection, falling
// back to PUT when the API answers 409 (already exists). Network and API
// failures come back as a skipped outcome, never as an error: the save
// URL embeds the object inline and does not require the upsert.
func (c *Client) Upsert(ctx context.Context, resource, id string, payload map[string]any) UpsertOutcome {
	if c.account == nil {
		return skipped("no service account configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return skipped("encoding payload: %v", err)
	}

	status, err := c.send(ctx, http.MethodPost, c.baseURL+"/"+resource, body)
	if err != nil {
		return skipped("POST %s: %v", resource, err)
	}
	switch {
	case status == http.StatusConflict:
		// Exists already; update in place.
		status, err = c.send(ctx, http.MethodPut, c.baseURL+"/"+resource+"/"+id, body)
		if err != nil {
			return skipped("PUT %s/%s: %v", resource, id, err)
		}
		if status >= 300 {
			return skipped("PUT %s/%s: status %d", resource, id, status)
		}
		return UpsertOutcome{Status: UpsertUpdated}
	case status >= 300:
		return skipped("POST %s: status %d", resource, status)
	default:
		return UpsertOutcome{Status: UpsertCreated}
	}
}

// send issues one authorized request and returns the response status.
func (c *Client) send(ctx context.Context, method, url string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.bearerToken()
	if err != nil {
		return 0, fmt.Errorf("building bearer token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// bearerToken builds a short-lived self-signed service account JWT,
// accepted by Google APIs in place of an exchanged OAuth token.
func (c *Client) bearerToken() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   c.account.ClientEmail,
		"sub":   c.account.ClientEmail,
		"aud":   "https://walletobjects.googleapis.com/",
		"scope": "https://www.googleapis.com/auth/wallet_object.issuer",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(c.account.PrivateKey)
}
