package completion

import (
	"context"
	"errors"
	"testing"
	"time"

	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/pkg/embedding"
	"kt-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	errs  []error
	calls int
	opts  []llm.Options
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (*llm.ChatResponse, error) {
	f.opts = append(f.opts, llm.ApplyOptions(llm.Options{}, opts...))
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return &llm.ChatResponse{Content: "ok", Usage: &llm.Usage{TotalTokens: 3}}, nil
}

type fakeEmbedder struct {
	values []float32
	err    error
}

func (f *fakeEmbedder) Generate(ctx context.Context, text, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: f.values}}, nil
}

func newTestClient(p llm.LLMProvider, e embedding.EmbeddingProvider) (*Client, *[]time.Duration) {
	var slept []time.Duration
	c := NewClient(p, e, logger.NewNopLogger(), "primary", 4,
		WithSleeper(func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}),
	)
	return c, &slept
}

var rateLimited = &llm.StatusError{Provider: "test", StatusCode: 429}

func TestGetCompletion(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantText  string
		wantOK    bool
		wantCalls int
		wantSleep []time.Duration
	}{
		{
			name:      "first attempt succeeds",
			wantText:  "ok",
			wantOK:    true,
			wantCalls: 1,
			wantSleep: []time.Duration{500 * time.Millisecond},
		},
		{
			name:      "always rate limited",
			errs:      []error{rateLimited, rateLimited, rateLimited},
			wantCalls: 3,
			wantSleep: []time.Duration{
				500 * time.Millisecond, 2 * time.Second,
				500 * time.Millisecond, 4 * time.Second,
				500 * time.Millisecond,
			},
		},
		{
			name:      "recovers after outage",
			errs:      []error{&llm.StatusError{StatusCode: 503}},
			wantText:  "ok",
			wantOK:    true,
			wantCalls: 2,
			wantSleep: []time.Duration{500 * time.Millisecond, 2 * time.Second, 500 * time.Millisecond},
		},
		{
			name:      "permanent error is not retried",
			errs:      []error{errors.New("bad request")},
			wantCalls: 1,
			wantSleep: []time.Duration{500 * time.Millisecond},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{errs: tt.errs}
			c, slept := newTestClient(p, nil)

			text, ok := c.GetCompletion(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}})

			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantCalls, p.calls)
			assert.Equal(t, tt.wantSleep, *slept)
		})
	}
}

func TestGetCompletion_ModelOverride(t *testing.T) {
	p := &fakeProvider{}
	c, _ := newTestClient(p, nil)

	_, ok := c.GetCompletion(context.Background(), nil, llm.WithModel("secondary"), llm.WithJSONResponse())
	require.True(t, ok)
	assert.Equal(t, "secondary", p.opts[0].Model)
	assert.True(t, p.opts[0].JSONResponse)

	_, _ = c.GetCompletion(context.Background(), nil)
	assert.Equal(t, "primary", p.opts[1].Model)
}

func TestGetCompletion_CancelledContext(t *testing.T) {
	p := &fakeProvider{}
	c := NewClient(p, nil, logger.NewNopLogger(), "primary", 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := c.GetCompletion(ctx, nil)
	assert.False(t, ok)
	assert.Equal(t, 0, p.calls)
}

func TestGetEmbedding(t *testing.T) {
	t.Run("provider values pass through", func(t *testing.T) {
		c, _ := newTestClient(nil, &fakeEmbedder{values: []float32{0.1, 0.2, 0.3, 0.4}})
		v := c.GetEmbedding(context.Background(), "x")
		assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, v)
		assert.False(t, IsZeroVector(v))
	})

	t.Run("failure yields zero vector of configured dimension", func(t *testing.T) {
		c, _ := newTestClient(nil, &fakeEmbedder{err: errors.New("boom")})
		v := c.GetEmbedding(context.Background(), "x")
		assert.Len(t, v, 4)
		assert.True(t, IsZeroVector(v))
	})

	t.Run("empty response yields zero vector", func(t *testing.T) {
		c, _ := newTestClient(nil, &fakeEmbedder{})
		v := c.GetQueryEmbedding(context.Background(), "x")
		assert.Len(t, v, 4)
		assert.True(t, IsZeroVector(v))
	})
}
