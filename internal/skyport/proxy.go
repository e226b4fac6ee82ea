package skyport

import (
	"context"
	"fmt"
	"net/http"

	"minepanel/internal/models"
	"minepanel/internal/store"
)

// Proxy reads the panel URL and key from the stored settings on every call,
// so a settings update takes effect on the next request.
type Proxy struct {
	settings   store.SettingsStore
	httpClient *http.Client
}

func NewProxy(settings store.SettingsStore, httpClient *http.Client) *Proxy {
	return &Proxy{settings: settings, httpClient: httpClient}
}

func (p *Proxy) client(ctx context.Context) (*Client, error) {
	settings, err := p.settings.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if settings.SkyportAPIKey == "" {
		return nil, ErrNotConfigured
	}
	return NewClient(settings.SkyportAPIURL, settings.SkyportAPIKey, p.httpClient), nil
}

func (p *Proxy) ListNodes(ctx context.Context) ([]models.Node, error) {
	c, err := p.client(ctx)
	if err != nil {
		return nil, err
	}
	return c.Nodes(ctx)
}

func (p *Proxy) ListEggs(ctx context.Context) ([]models.Egg, error) {
	c, err := p.client(ctx)
	if err != nil {
		return nil, err
	}
	return c.Eggs(ctx)
}
