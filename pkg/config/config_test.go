package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vito/sexpfmt/pkg/sexp"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	config := Default()
	assert.Equal(t, sexp.DefaultOptions(), config.Options())
	assert.Equal(t, DefaultAddr, config.Server.Addr)
	assert.Empty(t, config.Extensions)
}

func TestLoad(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), `
max_width = 80
indent_size = 2
extensions = [".sexp", ".tree"]

[server]
addr = ":9000"
`)
		config, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, sexp.Options{MaxWidth: 80, IndentSize: 2}, config.Options())
		assert.Equal(t, []string{".sexp", ".tree"}, config.Extensions)
		assert.Equal(t, ":9000", config.Server.Addr)
	})

	t.Run("missing keys keep defaults", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "indent_size = 0\n")
		config, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, sexp.DefaultMaxWidth, config.MaxWidth)
		assert.Equal(t, 0, config.IndentSize)
		assert.Equal(t, DefaultAddr, config.Server.Addr)
	})

	t.Run("empty addr", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "[server]\naddr = \"\"\n")
		config, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, DefaultAddr, config.Server.Addr)
	})

	t.Run("unknown key", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "max_widht = 80\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_widht")
	})

	t.Run("invalid width", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "max_width = 0\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max width")
	})

	t.Run("malformed toml", func(t *testing.T) {
		path := writeConfig(t, t.TempDir(), "max_width = \n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
	})
}

func TestFind(t *testing.T) {
	t.Run("walks up to parent", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
		path := writeConfig(t, root, "max_width = 60\n")

		nested := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		found, config, err := Find(nested)
		require.NoError(t, err)
		assert.Equal(t, path, found)
		require.NotNil(t, config)
		assert.Equal(t, 60, config.MaxWidth)
	})

	t.Run("stops at .git", func(t *testing.T) {
		outer := t.TempDir()
		writeConfig(t, outer, "max_width = 60\n")

		repo := filepath.Join(outer, "repo")
		require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))

		found, config, err := Find(repo)
		require.NoError(t, err)
		assert.Empty(t, found)
		assert.Nil(t, config)
	})

	t.Run("stops at root", func(t *testing.T) {
		outer := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(outer, ".git"), 0o755))
		writeConfig(t, outer, "max_width = 60\n")

		project := filepath.Join(outer, "project")
		nested := filepath.Join(project, "src")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		found, config, err := FindWithin(nested, project)
		require.NoError(t, err)
		assert.Empty(t, found)
		assert.Nil(t, config)

		path := writeConfig(t, project, "max_width = 70\n")
		found, config, err = FindWithin(nested, project)
		require.NoError(t, err)
		assert.Equal(t, path, found)
		assert.Equal(t, 70, config.MaxWidth)
	})

	t.Run("invalid file", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
		writeConfig(t, root, "bogus = true\n")

		_, _, err := Find(root)
		require.Error(t, err)
	})
}
