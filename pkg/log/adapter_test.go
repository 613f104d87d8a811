package log

import (
	"testing"

	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedAdapter() (kratoslog.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewKratosAdapter(zap.New(core)), logs
}

func TestAdapter_LogsKeyValuePairs(t *testing.T) {
	adapter, logs := newObservedAdapter()

	err := adapter.Log(kratoslog.LevelInfo, "ip", "1.2.3.4", "count", 3)
	require.NoError(t, err)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "1.2.3.4", fields["ip"])
	assert.EqualValues(t, 3, fields["count"])
}

func TestAdapter_MasksCredentialValues(t *testing.T) {
	adapter, logs := newObservedAdapter()

	err := adapter.Log(kratoslog.LevelWarn, "api_key", "super-secret-key")
	require.NoError(t, err)

	fields := logs.All()[0].ContextMap()
	masked, ok := fields["api_key"].(string)
	require.True(t, ok)
	assert.NotEqual(t, "super-secret-key", masked)
	assert.Contains(t, masked, "*")
}

func TestAdapter_LevelMapping(t *testing.T) {
	adapter, logs := newObservedAdapter()

	_ = adapter.Log(kratoslog.LevelDebug, "msg", "d")
	_ = adapter.Log(kratoslog.LevelInfo, "msg", "i")
	_ = adapter.Log(kratoslog.LevelWarn, "msg", "w")
	_ = adapter.Log(kratoslog.LevelError, "msg", "e")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, zap.InfoLevel, entries[1].Level)
	assert.Equal(t, zap.WarnLevel, entries[2].Level)
	assert.Equal(t, zap.ErrorLevel, entries[3].Level)
}

func TestAdapter_EmptyKeyvals(t *testing.T) {
	adapter, logs := newObservedAdapter()

	assert.NoError(t, adapter.Log(kratoslog.LevelInfo))
	assert.Equal(t, 0, logs.Len())
}
