package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	var buf bytes.Buffer
	logger := New(&buf, "debug")
	ctx := With(WithLogger(context.Background(), logger), "session", "s1")

	FromContext(ctx).Debug("hello")
	assert.Contains(t, buf.String(), "session=s1")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
