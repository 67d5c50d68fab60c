package log_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iottabyte/tidbit/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in       string
		expected slog.Level
	}{
		{"trace", log.LevelTrace},
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.expected, log.ParseLevel(tc.in))
		})
	}
}

func TestHandlerSplitsByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := slog.New(log.NewHandler(slog.LevelInfo, &out, &errOut))

	logger.Debug("hidden")
	logger.Info("hello", "k", 1)
	logger.Error("boom")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "hello")
	assert.NotContains(t, out.String(), "boom")
	assert.Contains(t, errOut.String(), "boom")
	assert.NotContains(t, errOut.String(), "hello")
}

func TestHandlerWithAttrs(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(log.NewHandler(log.LevelTrace, &out, &out)).With("session", "abc")
	logger.Log(t.Context(), log.LevelTrace, "report")
	assert.Contains(t, out.String(), "session=abc")
}

func TestSetupLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tidbit.log")
	logger, closers, err := log.SetupLogger(log.Options{Level: "debug", File: path})
	require.NoError(t, err)
	require.Len(t, closers, 1)

	logger.Debug("to file")
	for _, c := range closers {
		require.NoError(t, c.Close())
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestReportLogger(t *testing.T) {
	var buf bytes.Buffer
	rl := log.NewReportLogger(&buf)
	rl.Log(log.ToHost, []byte{0x01, 0x01, 0x04})
	rl.Log(log.FromHost, []byte{0x02})
	rl.Log(log.ToHost, nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "KB->HOST 3 bytes: 01 01 04")
	assert.Contains(t, lines[1], "HOST->KB 1 bytes: 02")

	log.NewReportLogger(nil).Log(log.ToHost, []byte{1})
}
