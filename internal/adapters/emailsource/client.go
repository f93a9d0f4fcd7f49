package emailsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client fetches email bodies from the external service-desk automation
// over HTTP: GET {base}/{ticket} returns the body of the first linked email
// as plain text. 404 means the ticket has no email; other failures are
// errors for the caller to swallow.
type Client struct {
	base string
	http *http.Client
}

func New(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) FetchBody(ctx context.Context, ticket string) (string, error) {
	u := c.base + "/" + url.PathEscape(ticket)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("email source returned %s for %s", resp.Status, ticket)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Noop stands in when no email source is configured; every ticket comes back
// empty and gets marked nothing-to-extract.
type Noop struct{}

func (Noop) FetchBody(ctx context.Context, ticket string) (string, error) { return "", nil }
