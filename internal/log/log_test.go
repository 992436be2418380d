package log

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestNewHandlerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "warn"))

	logger.Info("quiet")
	logger.Warn("loud", "host", "example.com")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "msg=loud")
	assert.Contains(t, out, "host=example.com")
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestBroadcasterFanOut(t *testing.T) {
	b := NewBroadcaster()
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	assert.Equal(t, 2, b.Subscribers())

	n, err := b.Write([]byte("line one\n"))
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	assert.Equal(t, "line one\n", string(<-ch1))
	assert.Equal(t, "line one\n", string(<-ch2))

	b.Unsubscribe(ch1)
	b.Unsubscribe(ch1)
	assert.Equal(t, 1, b.Subscribers())
	_, ok := <-ch1
	assert.False(t, ok, "unsubscribed channel should be closed")
}

func TestBroadcasterBacklog(t *testing.T) {
	b := NewBroadcaster()
	for i := 0; i < backlogSize+10; i++ {
		_, _ = fmt.Fprintf(b, "line %d\n", i)
	}

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	require.Len(t, ch, backlogSize)
	assert.Equal(t, "line 10\n", string(<-ch))
}

func TestBroadcasterSlowSubscriber(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < subscriberBuffer*2; i++ {
		_, err := b.Write([]byte("x"))
		require.NoError(t, err)
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestBroadcasterCopiesInput(t *testing.T) {
	b := NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	p := []byte("abc")
	_, _ = b.Write(p)
	p[0] = 'z'
	assert.Equal(t, "abc", string(<-ch))
}

func TestGetOSInfo(t *testing.T) {
	attrs := GetOSInfo()
	require.NotEmpty(t, attrs)

	var keys []string
	for _, a := range attrs {
		if attr, ok := a.(slog.Attr); ok {
			keys = append(keys, attr.Key)
		}
	}
	assert.Contains(t, strings.Join(keys, ","), "GOOS")
}

func TestStatsFilePath(t *testing.T) {
	p := GetStatsFilePath("stats.log")
	assert.True(t, strings.HasSuffix(p, "stats.log"))
	assert.True(t, strings.HasSuffix(GetLogFilePath(), logFileName))
}
