package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONCarriesRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, FormatJSON, slog.LevelInfo)

	ctx := WithRequestID(context.Background(), "req-42")
	log.InfoContext(ctx, "user created", "user_id", "alice")
	log.DebugContext(ctx, "dropped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "user created", record["msg"])
	assert.Equal(t, "alice", record["user_id"])
	assert.Equal(t, "req-42", record["request_id"])
}

func TestPrettyHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, FormatPretty, slog.LevelDebug).With("component", "auth").WithGroup("token")

	log.Debug("issued", "type", "ACCESS", slog.Group("claims", "user_id", "alice"))

	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "issued")
	assert.Contains(t, out, "component"+reset+"=auth")
	assert.Contains(t, out, "token.type"+reset+"=ACCESS")
	assert.Contains(t, out, "token.claims.user_id"+reset+"=alice")
}

func TestPrettyHandlerDefaultsToInfo(t *testing.T) {
	t.Parallel()

	h := NewPrettyHandler(&bytes.Buffer{}, nil)
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
}
