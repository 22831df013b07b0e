package embedder

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig tunes the circuit breaker wrapping an embedding client.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	ReadyToTripRatio float64
}

// DefaultBreakerConfig trips after 60% failures across at least 3 calls
// and probes again after 30 seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		ReadyToTripRatio: 0.6,
	}
}

// BreakerClient wraps a Client with circuit breaking so a failing
// embedding endpoint sheds load fast instead of stalling every ingestion
// batch on timeouts.
type BreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker
}

// NewBreakerClient wraps the given client.
func NewBreakerClient(client Client, cfg BreakerConfig) *BreakerClient {
	if cfg.ReadyToTripRatio == 0 {
		cfg = DefaultBreakerConfig()
	}

	st := gobreaker.Settings{
		Name:        "embedder:" + client.Model(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
	}

	return &BreakerClient{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(st),
	}
}

// Embed delegates through the breaker.
func (b *BreakerClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.client.Embed(ctx, texts)
	})
	if err != nil {
		return nil, err
	}
	return result.([][]float32), nil
}

// EmbedSingle delegates through the breaker.
func (b *BreakerClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedSingle(ctx, b, text)
}

// Model reports the wrapped client's model.
func (b *BreakerClient) Model() string { return b.client.Model() }

// Dimensions reports the wrapped client's embedding width.
func (b *BreakerClient) Dimensions() int { return b.client.Dimensions() }

// Close closes the wrapped client.
func (b *BreakerClient) Close() error { return b.client.Close() }
