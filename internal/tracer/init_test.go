package tracer

import (
	"context"
	"testing"

	"kt-assistant-be/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestInitTracer_Disabled(t *testing.T) {
	shutdown := InitTracer(context.Background(), config.TracingConfig{Enabled: false})
	assert.NoError(t, shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1, "ParentBased{root:AlwaysOnSampler"},
		{2, "ParentBased{root:AlwaysOnSampler"},
		{0, "ParentBased{root:AlwaysOffSampler"},
		{0.25, "ParentBased{root:TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		assert.Contains(t, sampler(tt.ratio).Description(), tt.want)
	}
}
