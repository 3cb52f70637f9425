package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observeGlobal(t *testing.T) *observer.ObservedLogs {
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestDebugTiming(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		messages []string
	}{
		{"enabled", true, []string{"starting", "completed"}},
		{"disabled", false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observeGlobal(t)

			DebugTiming(tt.enabled, "reparse")()

			var got []string
			for _, e := range logs.All() {
				got = append(got, e.Message)
				assert.Equal(t, "reparse", e.ContextMap()["operation"])
			}
			assert.Equal(t, tt.messages, got)
		})
	}
}

func TestDebugTimingRecordsDuration(t *testing.T) {
	logs := observeGlobal(t)

	DebugTiming(true, "parse")()

	done := logs.FilterMessage("completed").All()
	require.Len(t, done, 1)
	var took *zapcore.Field
	for i, f := range done[0].Context {
		if f.Key == "took" {
			took = &done[0].Context[i]
		}
	}
	require.NotNil(t, took)
	assert.Equal(t, zapcore.DurationType, took.Type)
}

func TestDebugOutput(t *testing.T) {
	logs := observeGlobal(t)

	DebugHeader(true)
	DebugOutput(true, "input %q", "1 Main St")
	DebugOutput(false, "hidden")
	DebugFooter(true)

	var got []string
	for _, e := range logs.All() {
		got = append(got, e.Message)
	}
	assert.Equal(t, []string{"=== DEBUG START ===", `input "1 Main St"`, "=== DEBUG END ==="}, got)
}
