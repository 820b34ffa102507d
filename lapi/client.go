// lapi/client.go
package lapi

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	gateguard_errors "github.com/gateguard/gateguard/errors"
	logger "github.com/gateguard/gateguard/logging"
)

// decisionsPath is the fixed API path queried on the endpoint, regardless of
// any path component supplied in configuration.
const decisionsPath = "/v1/decisions"

// Doer is the HTTP capability the client requires. Connection pooling, TLS
// and timeouts belong to the transport behind it, not to this client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues lookups against the decision service. It carries no caller
// request body and captures only the response body; the payload is returned
// verbatim and never parsed here.
type Client struct {
	endpoint  *Endpoint
	apiKey    string
	userAgent string
	http      Doer
}

func NewClient(endpoint *Endpoint, apiKey, userAgent string, doer Doer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		endpoint:  endpoint,
		apiKey:    apiKey,
		userAgent: userAgent,
		http:      doer,
	}
}

// QueryURL builds the lookup URL for a client address.
func (c *Client) QueryURL(addr string) string {
	return c.endpoint.BaseURL() + decisionsPath + "?ip=" + url.QueryEscape(addr)
}

// Query looks up addr and returns the raw response body. Errors:
//   - 404 → gateguard_errors.ErrNotDecisionService (never subject to fallback)
//   - empty body on success → gateguard_errors.ErrResponseNotRecorded
//   - transport failure or other non-2xx → *gateguard_errors.ServiceError
func (c *Client) Query(ctx context.Context, addr string) (string, error) {
	target := c.QueryURL(addr)

	logger.Debug("looking up ip at decision service",
		zap.String("ip", addr), zap.String("url", target))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &gateguard_errors.ServiceError{Err: err}
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &gateguard_errors.ServiceError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		logger.Error("received 404 from the decision service; you might be "+
			"pointing at something that is not a decision service",
			zap.String("url", target))
		return "", gateguard_errors.ErrNotDecisionService
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &gateguard_errors.ServiceError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &gateguard_errors.ServiceError{Err: err}
	}
	if len(body) == 0 {
		return "", gateguard_errors.ErrResponseNotRecorded
	}

	return string(body), nil
}
