package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 0, 0}, b: []float32{1, 0, 0}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "length mismatch", a: []float32{1, 0}, b: []float32{1}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "empty", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	zero := Normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestChunkID(t *testing.T) {
	a := ChunkID("PMC_123", "some chunk text")
	b := ChunkID("PMC_123", "some chunk text")
	c := ChunkID("PMC_124", "some chunk text")
	d := ChunkID("PMC_123", "other chunk text")

	assert.Equal(t, a, b, "same inputs must yield the same id")
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Len(t, a, 16)
}

func TestConcurrentExecutor(t *testing.T) {
	t.Run("collects per-function errors in order", func(t *testing.T) {
		ex := NewConcurrentExecutor(2)
		boom := errors.New("boom")
		errs := ex.Execute(context.Background(),
			func() error { return nil },
			func() error { return boom },
		)
		require.Len(t, errs, 2)
		assert.NoError(t, errs[0])
		assert.ErrorIs(t, errs[1], boom)
	})

	t.Run("recovers panics", func(t *testing.T) {
		ex := NewConcurrentExecutor(2)
		errs := ex.Execute(context.Background(), func() error { panic("bad branch") })
		require.Len(t, errs, 1)
		assert.ErrorContains(t, errs[0], "panic recovered")
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		ex := NewConcurrentExecutor(1)
		ctx, cancel := context.WithCancel(context.Background())

		block := make(chan struct{})
		done := make(chan []error, 1)
		go func() {
			done <- ex.Execute(ctx,
				func() error { <-block; return nil },
				func() error { return nil },
			)
		}()

		cancel()
		close(block)

		select {
		case errs := <-done:
			require.Len(t, errs, 2)
		case <-time.After(2 * time.Second):
			t.Fatal("executor did not return after cancellation")
		}
	})
}
