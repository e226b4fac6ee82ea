// Package skyport reads nodes and eggs from a Skyport panel's application API.
package skyport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"minepanel/internal/models"
)

const maxBodyBytes = 4 << 20

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a client for the panel API at baseURL. A nil httpClient
// uses http.DefaultClient.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = models.DefaultSkyportAPIURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Nodes(ctx context.Context) ([]models.Node, error) {
	var list nodeList
	if err := c.get(ctx, "/application/nodes", "nodes", &list); err != nil {
		return nil, err
	}
	if list.Data == nil {
		return nil, fmt.Errorf("%w: no data in nodes response", ErrMalformedResponse)
	}
	return list.nodes(), nil
}

func (c *Client) Eggs(ctx context.Context) ([]models.Egg, error) {
	var list nestList
	if err := c.get(ctx, "/application/nests?include=eggs", "eggs", &list); err != nil {
		return nil, err
	}
	if list.Data == nil {
		return nil, fmt.Errorf("%w: no data in nests response", ErrMalformedResponse)
	}
	return list.eggs(), nil
}

func (c *Client) get(ctx context.Context, path, resource string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &TransportError{Resource: resource, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Resource: resource, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &TransportError{Resource: resource, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newUpstreamError(resp, body)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
