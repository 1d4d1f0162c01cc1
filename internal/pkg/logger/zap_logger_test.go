package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerRoundTripsThroughGetLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webhook.log")
	l := NewIsolatedLogger(path)

	l.Info("WEBHOOK", "event received", map[string]interface{}{"event_id": "evt_1"})
	l.Warn("WEBHOOK", "unknown provider status", map[string]interface{}{"status": "paused_forever"})
	l.Error("WEBHOOK", "activation failed", map[string]interface{}{"error": "boom"})
	require.NoError(t, l.Sync())

	all, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "activation failed", all[0].Message)
	assert.Equal(t, "WEBHOOK", all[0].Module)
	assert.NotEmpty(t, all[0].Id)

	warns, err := l.GetLogs("WARN", 10, 0)
	require.NoError(t, err)
	require.Len(t, warns, 1)
	assert.Equal(t, "paused_forever", warns[0].Details["status"])

	page, err := l.GetLogs("", 10, 5)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestNopLoggerHasNoLogs(t *testing.T) {
	l := NewNopLogger()
	l.Info("BILLING", "ignored", nil)

	logs, err := l.GetLogs("", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
