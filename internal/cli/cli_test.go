package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("conf flag and positional audit path", func(t *testing.T) {
		var out strings.Builder
		cfg, done, err := Parse([]string{"-conf", "audit.yaml", "/audits"}, &out)
		require.NoError(t, err)
		require.False(t, done)
		assert.Equal(t, "audit.yaml", cfg.SearchConfigPath)
		assert.Equal(t, "/audits", cfg.AuditPath)
		assert.Equal(t, "*.txt", cfg.FilePattern)
		assert.False(t, cfg.Recursive)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("shorthand conf and path flag", func(t *testing.T) {
		var out strings.Builder
		cfg, done, err := Parse([]string{"-c", "audit.yaml", "-path", "/audits", "-recurse", "-pattern", "*.log"}, &out)
		require.NoError(t, err)
		require.False(t, done)
		assert.Equal(t, "audit.yaml", cfg.SearchConfigPath)
		assert.Equal(t, "/audits", cfg.AuditPath)
		assert.Equal(t, "*.log", cfg.FilePattern)
		assert.True(t, cfg.Recursive)
	})

	t.Run("workers and batch size", func(t *testing.T) {
		var out strings.Builder
		cfg, _, err := Parse([]string{"-c", "a.yaml", "-workers", "8", "-batch-size", "100", "/audits"}, &out)
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Workers)
		assert.Equal(t, 100, cfg.BatchSize)
	})

	t.Run("missing conf prints usage and exits cleanly", func(t *testing.T) {
		var out strings.Builder
		cfg, done, err := Parse([]string{"/audits"}, &out)
		require.NoError(t, err)
		assert.True(t, done)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("missing audit path prints usage and exits cleanly", func(t *testing.T) {
		var out strings.Builder
		cfg, done, err := Parse([]string{"-c", "a.yaml"}, &out)
		require.NoError(t, err)
		assert.True(t, done)
		assert.Nil(t, cfg)
	})

	t.Run("version flag", func(t *testing.T) {
		var out strings.Builder
		cfg, done, err := Parse([]string{"-version"}, &out)
		require.NoError(t, err)
		assert.True(t, done)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "kpsearch")
	})

	t.Run("invalid log format", func(t *testing.T) {
		var out strings.Builder
		_, _, err := Parse([]string{"-c", "a.yaml", "-log-format", "xml", "/audits"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("invalid log level", func(t *testing.T) {
		var out strings.Builder
		_, _, err := Parse([]string{"-c", "a.yaml", "-log-level", "trace", "/audits"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("negative workers rejected", func(t *testing.T) {
		var out strings.Builder
		_, _, err := Parse([]string{"-c", "a.yaml", "-workers", "-1", "/audits"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("unknown flag is an exit error", func(t *testing.T) {
		var out strings.Builder
		_, _, err := Parse([]string{"-c", "a.yaml", "-bogus", "/audits"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})
}
