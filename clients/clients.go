package clients

import (
	"go.uber.org/zap"

	"whaledeck/clients/tokenstore"
	"whaledeck/clients/whaleapi"
	"whaledeck/config"
)

// Clients bundles the remote and storage clients the app depends on.
type Clients struct {
	Logger *zap.Logger

	WhaleAPI   *whaleapi.Client
	TokenStore tokenstore.Store
}

// NewClients instantiates all clients around an already-open token store.
// tokens is the source the API client reads the access token from on every
// request; it may be nil for an unauthenticated client.
func NewClients(logger *zap.Logger, cfg *config.Config, store tokenstore.Store, tokens whaleapi.TokenSource) *Clients {
	return &Clients{
		Logger:     logger,
		WhaleAPI:   whaleapi.NewClient(logger, cfg.API.BaseURL, cfg.API.Timeout, tokens),
		TokenStore: store,
	}
}

// Close releases client resources.
func (c *Clients) Close() error {
	return c.TokenStore.Close()
}
