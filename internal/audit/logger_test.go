package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger() (*Logger, *[]string) {
	var lines []string
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLoggerWithSink(func() time.Time { return fixed }, func(format string, v ...any) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return l, &lines
}

func decode(t *testing.T, line string) Event {
	t.Helper()
	require.True(t, strings.HasPrefix(line, "AUDIT: "))
	var e Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "AUDIT: ")), &e))
	return e
}

func TestLogger_LogTransfer(t *testing.T) {
	l, lines := captureLogger()

	l.LogTransfer("tx1", "alice", "bob", 50, "SUCCESS")

	require.Len(t, *lines, 1)
	e := decode(t, (*lines)[0])
	assert.Equal(t, "TRANSFER", e.EventType)
	assert.Equal(t, "tx1", e.TransactionID)
	assert.Equal(t, "alice", e.Username)
	assert.Equal(t, int64(50), e.Amount)
	assert.Equal(t, "SUCCESS", e.Status)
	assert.Equal(t, 2025, e.Timestamp.Year())
}

func TestLogger_LogError(t *testing.T) {
	l, lines := captureLogger()

	l.LogError("LOAN_PAYMENT", "alice", errors.New("insufficient funds"))

	e := decode(t, (*lines)[0])
	assert.Equal(t, "FAILED", e.Status)
	assert.Equal(t, map[string]any{"error": "insufficient funds"}, e.Details)
}
