package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core)

	details := map[string]interface{}{"session_id": "s1", "error": errors.New("boom")}
	log.Error("InterviewService", "Failed to save session", details)
	log.Info("InterviewService", "Session started", nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "InterviewService", ctx["module"])
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, map[string]interface{}{"session_id": "s1", "error": "boom"}, ctx["details"])

	// the caller's map is left untouched
	_, stillError := details["error"].(error)
	assert.True(t, stillError)

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, map[string]interface{}{}, entries[1].ContextMap()["details"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"DEBUG", zapcore.DebugLevel},
		{" info ", zapcore.InfoLevel},
		{"WARN", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"loud", zapcore.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}
