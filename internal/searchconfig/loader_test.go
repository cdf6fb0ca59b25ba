package searchconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func names(configs []*SearchConfig) []string {
	out := make([]string, len(configs))
	for i, c := range configs {
		out[i] = c.Name
	}
	return out
}

func TestLoadSearchConfigs(t *testing.T) {
	ctx := context.Background()

	t.Run("loads searches in document order", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, dir, "searches.yaml", `
users:
  regex: 'User: (?P<user>\w+)'
  field_list: [user]
ports:
  regex: 'Port: (?P<port>\d+)'
  field_list: [port]
`)
		configs, err := LoadSearchConfigs(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, []string{"users", "ports"}, names(configs))
	})

	t.Run("global merges into every search", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, dir, "searches.yaml", `
global:
  max_results: 10
  sys_filter:
    - {attr: os_family, comp: eq, value: Linux}
users:
  regex: 'User: \w+'
ports:
  regex: 'Port: \d+'
  max_results: 3
`)
		configs, err := LoadSearchConfigs(ctx, path)
		require.NoError(t, err)
		require.Len(t, configs, 2)
		assert.Equal(t, 10, configs[0].MaxResults)
		assert.Equal(t, 3, configs[1].MaxResults)
		require.Len(t, configs[0].SysFilter, 1)
		assert.Equal(t, "os_family", configs[0].SysFilter[0].Attr)
	})

	t.Run("includes resolve relative to the including file", func(t *testing.T) {
		dir := t.TempDir()
		sub := filepath.Join(dir, "sub")
		require.NoError(t, os.Mkdir(sub, 0o755))
		writeConfig(t, sub, "extra.yaml", `
extra:
  regex: 'Extra: \w+'
`)
		path := writeConfig(t, dir, "main.yaml", `
main:
  regex: 'Main: \w+'
include_extra:
  files:
    - sub/extra.yaml
`)
		configs, err := LoadSearchConfigs(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, []string{"main", "extra"}, names(configs))
	})

	t.Run("missing include is skipped not fatal", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, dir, "main.yaml", `
main:
  regex: 'Main: \w+'
include_gone:
  files:
    - does-not-exist.yaml
`)
		configs, err := LoadSearchConfigs(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, []string{"main"}, names(configs))
	})

	t.Run("include cycle loads each file once", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "a.yaml", `
from_a:
  regex: 'A: \w+'
include_b:
  files: [b.yaml]
`)
		writeConfig(t, dir, "b.yaml", `
from_b:
  regex: 'B: \w+'
include_a:
  files: [a.yaml]
`)
		configs, err := LoadSearchConfigs(ctx, filepath.Join(dir, "a.yaml"))
		require.NoError(t, err)
		assert.Equal(t, []string{"from_a", "from_b"}, names(configs))
	})

	t.Run("duplicate names across includes are kept", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "extra.yaml", `
users:
  regex: 'Other: \w+'
`)
		path := writeConfig(t, dir, "main.yaml", `
users:
  regex: 'User: \w+'
include_extra:
  files: [extra.yaml]
`)
		configs, err := LoadSearchConfigs(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, []string{"users", "users"}, names(configs))
	})

	t.Run("global applies only to its own file", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "extra.yaml", `
extra:
  regex: 'Extra: \w+'
`)
		path := writeConfig(t, dir, "main.yaml", `
global:
  unique: true
main:
  regex: 'Main: \w+'
include_extra:
  files: [extra.yaml]
`)
		configs, err := LoadSearchConfigs(ctx, path)
		require.NoError(t, err)
		require.Len(t, configs, 2)
		assert.True(t, configs[0].Unique)
		assert.False(t, configs[1].Unique)
	})

	t.Run("fatal errors in the top-level file", func(t *testing.T) {
		dir := t.TempDir()

		t.Run("missing file", func(t *testing.T) {
			_, err := LoadSearchConfigs(ctx, filepath.Join(dir, "nope.yaml"))
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
		})

		t.Run("malformed YAML", func(t *testing.T) {
			path := writeConfig(t, dir, "bad.yaml", "users: [unclosed\n")
			_, err := LoadSearchConfigs(ctx, path)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
		})

		t.Run("invalid regex", func(t *testing.T) {
			path := writeConfig(t, dir, "badre.yaml", `
users:
  regex: '('
`)
			_, err := LoadSearchConfigs(ctx, path)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "users", cfgErr.Name)
		})

		t.Run("non-mapping top level", func(t *testing.T) {
			path := writeConfig(t, dir, "list.yaml", "- a\n- b\n")
			_, err := LoadSearchConfigs(ctx, path)
			assert.ErrorContains(t, err, "top level must be a mapping")
		})
	})

	t.Run("malformed include is recoverable", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "broken.yaml", `
bad:
  regex: '('
`)
		path := writeConfig(t, dir, "main.yaml", `
main:
  regex: 'Main: \w+'
include_broken:
  files: [broken.yaml]
`)
		configs, err := LoadSearchConfigs(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, []string{"main"}, names(configs))
	})
}
