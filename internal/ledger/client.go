package ledger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Entity names accepted by Query.
const (
	EntityInvoice = "Invoice"
	EntityPayment = "Payment"
)

// DefaultMaxResults is the page bound applied when callers pass zero.
// The ledger truncates past its own limit; there is no cursoring beyond
// this single bounded query.
const DefaultMaxResults = 1000

// Client talks to the external accounting ledger: the read-only query API
// and the OAuth token endpoint.
type Client struct {
	apiBaseURL   string
	tokenURL     string
	clientID     string
	clientSecret string
	redirectURI  string
	authorizeURL string
	http         *http.Client
}

// Config holds the ledger endpoints and OAuth client credentials.
type Config struct {
	APIBaseURL   string
	TokenURL     string
	AuthorizeURL string
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// NewClient creates a ledger client with a bounded request timeout.
func NewClient(cfg Config) *Client {
	return &Client{
		apiBaseURL:   strings.TrimRight(cfg.APIBaseURL, "/"),
		tokenURL:     cfg.TokenURL,
		authorizeURL: cfg.AuthorizeURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		http:         &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthorizeURL builds the consent URL for the authorization-code grant.
// The state parameter carries the company id through the round trip.
func (c *Client) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("response_type", "code")
	params.Set("scope", "com.intuit.quickbooks.accounting")
	params.Set("redirect_uri", c.redirectURI)
	params.Set("state", state)
	return c.authorizeURL + "?" + params.Encode()
}

// Query issues a bounded SELECT against the ledger's query endpoint for the
// given realm and returns the decoded envelope. entity must be one of
// EntityInvoice or EntityPayment.
func (c *Client) Query(ctx context.Context, realmID, accessToken, entity string, maxResults int) (*QueryResponse, error) {
	if entity != EntityInvoice && entity != EntityPayment {
		return nil, &LedgerError{Op: "query", Err: fmt.Errorf("unsupported entity %q", entity)}
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	query := fmt.Sprintf("SELECT * FROM %s MAXRESULTS %d", entity, maxResults)
	endpoint := fmt.Sprintf("%s/v3/company/%s/query?query=%s", c.apiBaseURL, realmID, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &LedgerError{Op: "query", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &LedgerError{Op: "query", Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &LedgerError{
			Op:         "query",
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(body))),
		}
	}

	var parsed QueryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &LedgerError{Op: "query", Err: fmt.Errorf("decode response: %w", err)}
	}
	return &parsed, nil
}

// QueryInvoices fetches up to maxResults invoices for a realm.
func (c *Client) QueryInvoices(ctx context.Context, realmID, accessToken string, maxResults int) ([]WireInvoice, error) {
	resp, err := c.Query(ctx, realmID, accessToken, EntityInvoice, maxResults)
	if err != nil {
		return nil, err
	}
	return resp.QueryResponse.Invoice, nil
}

// QueryPayments fetches up to maxResults payments for a realm.
func (c *Client) QueryPayments(ctx context.Context, realmID, accessToken string, maxResults int) ([]WirePayment, error) {
	resp, err := c.Query(ctx, realmID, accessToken, EntityPayment, maxResults)
	if err != nil {
		return nil, err
	}
	return resp.QueryResponse.Payment, nil
}

// ExchangeAuthCode trades an authorization code for the initial token pair.
func (c *Client) ExchangeAuthCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.redirectURI)
	return c.tokenRequest(ctx, "exchange", form)
}

// RefreshAccessToken trades a refresh token for a new token pair.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	return c.tokenRequest(ctx, "refresh", form)
}

func (c *Client) tokenRequest(ctx context.Context, op string, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &AuthError{Op: op, Err: err}
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &AuthError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &AuthError{
			Op:  op,
			Err: fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, &AuthError{Op: op, Err: fmt.Errorf("decode token response: %w", err)}
	}
	if token.AccessToken == "" {
		return nil, &AuthError{Op: op, Err: errors.New("token response missing access_token")}
	}
	return &token, nil
}
