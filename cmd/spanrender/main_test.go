package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vango-dev/spanrender/internal/errors"
)

// run executes the CLI with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Go version: "+runtime.Version())
}

func TestRenderStreamed(t *testing.T) {
	out, err := run(t, "render", "/dashboard", "--delay", "0")
	require.NoError(t, err)

	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "data-hs-slot")
	assert.Contains(t, out, "data-hs-content")
	assert.Contains(t, out, "1,284")
}

func TestRenderBuffered(t *testing.T) {
	out, err := run(t, "render", "/dashboard", "--delay", "0", "--no-stream")
	require.NoError(t, err)

	assert.NotContains(t, out, "data-hs-slot")
	assert.Contains(t, out, "$48,200")
}

func TestRenderNotFound(t *testing.T) {
	out, err := run(t, "render", "/posts/nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, out, "No such post")

	_, err = run(t, "render", "dashboard")
	assert.Error(t, err)
}

func TestExportAll(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "export", "--all", "-o", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 5 pages to "+dir)

	for _, key := range []string{"index.html", "dashboard/index.html", "nested/index.html", "posts/streaming/index.html", "posts/errors/index.html"} {
		body, err := os.ReadFile(filepath.Join(dir, key))
		require.NoError(t, err, key)
		assert.NotContains(t, string(body), "data-hs-slot", key)
	}
}

func TestExportArgsAndFailure(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "export", "/dashboard", "-o", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "dashboard", "index.html"))
	assert.NoFileExists(t, filepath.Join(dir, "index.html"))

	_, err = run(t, "export", "/failing", "-o", dir)
	require.Error(t, err)
	assert.Equal(t, "E180", apperrors.Describe(err).Code)
}

func TestExportToS3NeedsCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	_, err := run(t, "export", "--bucket", "site")
	require.Error(t, err)
	assert.Equal(t, "E180", apperrors.Describe(err).Code)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "site.yaml")
	out := filepath.Join(dir, "public")
	require.NoError(t, os.WriteFile(file, []byte("export:\n  output: "+out+"\n  paths: [/nested]\n"), 0o644))

	_, err := run(t, "export", "--config", file)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "nested", "index.html"))

	t.Setenv(configEnv, file)
	_, err = run(t, "export", "/")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "index.html"))
}

func TestConfigErrors(t *testing.T) {
	_, err := run(t, "render", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, "E170", apperrors.Describe(err).Code)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"render", "--log-level", "loud"})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, "E171", apperrors.Describe(err).Code)
}
