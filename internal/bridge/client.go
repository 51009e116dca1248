package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"mt5panel/internal/apperr"
)

// Client talks to the external MT5 bridge service over HTTP/JSON. The
// bridge owns the actual trading terminal; this client only forwards
// requests and relays responses, treating every answer as untrusted.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type connectRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Server   string `json:"server"`
}

// Connect sends the decrypted credential triple to the bridge for a sync.
// The password exists only in the outbound request body; it is never
// logged and never part of any error message. The raw response body is
// returned for the caller to relay verbatim.
func (c *Client) Connect(ctx context.Context, login, password, server string) (json.RawMessage, error) {
	body, err := json.Marshal(connectRequest{Login: login, Password: password, Server: server})
	if err != nil {
		return nil, err
	}
	return c.post(ctx, "connect", "/api/connect", body)
}

// AccountSummary fetches account/financial data for a linked login. The
// login is user-supplied, so it is escaped into a single path segment;
// it must not be able to redirect the request to another bridge endpoint.
func (c *Client) AccountSummary(ctx context.Context, login string) (json.RawMessage, error) {
	return c.get(ctx, "account summary", "/api/account/"+url.PathEscape(login))
}

func (c *Client) post(ctx context.Context, op, path string, body []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req)
}

func (c *Client) get(ctx context.Context, op, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(op, req)
}

func (c *Client) do(op string, req *http.Request) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperr.UpstreamError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apperr.UpstreamError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("upstream rejected request")}
	}
	return json.RawMessage(payload), nil
}
