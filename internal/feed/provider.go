// Package feed ingests market data: providers produce ticks, the
// aggregator folds them into developing bars for the engine.
package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohamedkhairy/pineseries/internal/config"
	"github.com/mohamedkhairy/pineseries/internal/models"
)

var (
	// ErrNotConnected is returned when operations are attempted on a disconnected provider.
	ErrNotConnected = errors.New("provider is not connected")
	// ErrAlreadyConnected is returned when connecting an already connected provider.
	ErrAlreadyConnected = errors.New("provider is already connected")
	// ErrInvalidSymbol is returned when an empty symbol is subscribed.
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// Provider is a source of market ticks.
type Provider interface {
	// Connect establishes the upstream connection.
	Connect(ctx context.Context) error

	// Subscribe starts market data for the given symbols and returns the
	// channel ticks arrive on. The channel is closed by Close.
	Subscribe(ctx context.Context, symbols []string) (<-chan *models.Tick, error)

	// Unsubscribe stops market data for the given symbols.
	Unsubscribe(ctx context.Context, symbols []string) error

	// Close tears down the connection and closes the tick channel.
	Close() error

	// IsConnected reports whether the provider is currently connected.
	IsConnected() bool

	// Name returns the provider kind ("synthetic", "replay", "websocket").
	Name() string
}

// New builds the provider selected by the feed configuration.
func New(cfg config.FeedConfig) (Provider, error) {
	switch cfg.Provider {
	case "synthetic":
		return NewSynthetic(cfg.TickInterval), nil
	case "replay":
		return NewReplay(cfg.ReplayPath), nil
	case "websocket":
		return NewWebSocket(WebSocketConfig{
			URL:               cfg.WebSocketURL,
			ReconnectDelay:    cfg.ReconnectDelay,
			MaxReconnectDelay: cfg.MaxReconnectDelay,
		}), nil
	default:
		return nil, fmt.Errorf("unknown feed provider %q", cfg.Provider)
	}
}
