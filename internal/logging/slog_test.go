package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogJSON_RespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogJSON(&buf, LevelWarn)
	ctx := context.Background()

	log.Debug(ctx, "dbg")
	log.Info(ctx, "inf")
	log.Warn(ctx, "wrn", "k", 1)
	log.Error(ctx, "err")

	out := buf.String()
	assert.NotContains(t, out, `"msg":"dbg"`)
	assert.NotContains(t, out, `"msg":"inf"`)
	assert.Contains(t, out, `"msg":"wrn"`)
	assert.Contains(t, out, `"k":1`)
	assert.Contains(t, out, `"msg":"err"`)
}

func TestSlogJSON_WithAddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogJSON(&buf, LevelInfo)

	log.With("slug", "avatar").Info(context.Background(), "hello", "k", "v")

	out := buf.String()
	for _, s := range []string{`"slug":"avatar"`, `"msg":"hello"`, `"k":"v"`} {
		assert.Contains(t, out, s)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"info", LevelInfo, false},
		{"", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		if tc.wantErr {
			require.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestZerolog_LevelsAndWith(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, LevelInfo)
	ctx := context.Background()

	log.Debug(ctx, "dbg")
	log.With("slug", "avatar").Info(ctx, "inf", "files", 2)
	log.Error(ctx, "err")

	out := buf.String()
	assert.NotContains(t, out, `"message":"dbg"`)
	assert.Contains(t, out, `"message":"inf"`)
	assert.Contains(t, out, `"slug":"avatar"`)
	assert.Contains(t, out, `"files":2`)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2)
}
