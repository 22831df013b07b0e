package embedder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// FallbackChain tries a list of embedding clients in order and sticks with
// the first one that works. The switch is logged and visible through
// Model(), never silent: a collection populated through the chain records
// the model that actually served.
type FallbackChain struct {
	clients []Client
	logger  *slog.Logger

	mu     sync.RWMutex
	active int
}

// NewFallbackChain builds a chain over the given clients, primary first.
func NewFallbackChain(logger *slog.Logger, clients ...Client) (*FallbackChain, error) {
	if len(clients) == 0 {
		return nil, errors.New("fallback chain requires at least one client")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackChain{clients: clients, logger: logger}, nil
}

// Embed delegates to the active client, advancing down the chain on
// failure. Once a fallback serves successfully it stays active so later
// queries embed with the same model.
func (f *FallbackChain) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.RLock()
	start := f.active
	f.mu.RUnlock()

	var errs []error
	for i := start; i < len(f.clients); i++ {
		embeddings, err := f.clients[i].Embed(ctx, texts)
		if err == nil {
			if i != start {
				f.logger.Warn("embedding model fell back",
					"from", f.clients[start].Model(), "to", f.clients[i].Model())
				f.mu.Lock()
				if i > f.active {
					f.active = i
				}
				f.mu.Unlock()
			}
			return embeddings, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errs = append(errs, fmt.Errorf("%s: %w", f.clients[i].Model(), err))
	}
	return nil, fmt.Errorf("all embedding models failed: %w", errors.Join(errs...))
}

// EmbedSingle generates an embedding for a single text.
func (f *FallbackChain) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedSingle(ctx, f, text)
}

// UseModel makes the named model the active client and reports whether
// the chain has a client serving it. Collections opened with a recorded
// model call this so queries embed with the model that built the vectors
// even after the chain reset to the primary.
func (f *FallbackChain) UseModel(model string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.clients {
		if c.Model() == model {
			f.active = i
			return true
		}
	}
	return false
}

// Model reports the active client's model.
func (f *FallbackChain) Model() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.clients[f.active].Model()
}

// Dimensions reports the active client's embedding width.
func (f *FallbackChain) Dimensions() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.clients[f.active].Dimensions()
}

// Close closes every client in the chain.
func (f *FallbackChain) Close() error {
	var errs []error
	for _, c := range f.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
