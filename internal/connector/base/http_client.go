package base

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"paymentswitch/internal/connector"

	"github.com/rs/zerolog/log"
)

// HTTPClient sends connector requests. It implements connector.Sender.
type HTTPClient struct {
	client *http.Client
	name   string // connector name for logging
}

// NewHTTPClient creates a new HTTP client with default settings
func NewHTTPClient(name string, timeout time.Duration) *HTTPClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
		name:   name,
	}
}

// Send performs the request and reads the whole reply.
func (c *HTTPClient) Send(ctx context.Context, r *connector.Request) (*connector.Response, error) {
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", fmt.Sprintf("paymentswitch/%s", c.name))
	masked := make([]string, 0)
	for _, h := range r.Headers {
		req.Header.Set(h.Name, h.Value)
		if h.Masked {
			masked = append(masked, h.Name)
		}
	}

	// Never log masked header values or bodies.
	log.Debug().
		Str("connector", c.name).
		Str("method", r.Method).
		Str("url", r.URL).
		Strs("masked_headers", masked).
		Msg("making HTTP request")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error().
			Str("connector", c.name).
			Str("url", r.URL).
			Err(err).
			Msg("HTTP request failed")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	return c.handleResponse(resp)
}

// handleResponse processes the HTTP response
func (c *HTTPClient) handleResponse(resp *http.Response) (*connector.Response, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	log.Debug().
		Str("connector", c.name).
		Int("status_code", resp.StatusCode).
		Int("body_length", len(body)).
		Msg("received HTTP response")

	return &connector.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}, nil
}
