package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

const projectArchive = `
-- manualchunks.hcl --
manifest      = "runtime"
default_chunk = "app"

rule "vendor" {
  match  = "/node_modules/"
  bundle = "vendor"
}

rule "feature" {
  pattern = "src/features/([^/]+)/"
  bundle  = "feature-${match[0]}"
  async   = "feature-${match[0]}.lazy"
}
-- web/src/index.js --
import "./features/cart/cart.js";
-- web/stats/graph.json --
{}
`

// extract writes a txtar archive into a fresh temp dir.
func extract(t *testing.T, archive string) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range txtar.Parse([]byte(archive)).Files {
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, f.Data, 0o644))
	}
	return dir
}

func TestFind_WalksUp(t *testing.T) {
	dir := extract(t, projectArchive)

	got, err := Find(filepath.Join(dir, "web", "stats"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), got)
}

func TestFind_NothingFound(t *testing.T) {
	dir := t.TempDir()
	_, err := Find(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no manualchunks.hcl found")
}

func TestLoad(t *testing.T) {
	dir := extract(t, projectArchive)

	cfg, err := Load(filepath.Join(dir, FileName))
	require.NoError(t, err)

	assert.Equal(t, "runtime", cfg.Manifest)
	assert.Equal(t, "app", cfg.DefaultChunk)
	assert.Equal(t, dir, cfg.Context, "context defaults to the rules file directory")
	require.Len(t, cfg.Rules, 2)

	vendor, feature := cfg.Rules[0], cfg.Rules[1]
	assert.Equal(t, "vendor", vendor.Name)
	assert.Equal(t, "/node_modules/", vendor.Match)
	assert.Nil(t, vendor.Pattern)
	assert.Nil(t, vendor.Async, "absent async attribute is not kept")

	require.NotNil(t, feature.Pattern)
	assert.Equal(t, []string{"src/features/cart/", "cart"}, feature.Pattern.FindStringSubmatch("/p/src/features/cart/x.js"))
	assert.NotNil(t, feature.Async)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "syntax",
			src:  `rule "x" {`,
			want: "failed to parse",
		},
		{
			name: "missing bundle",
			src:  `rule "x" { match = "a" }`,
			want: `rule "x": bundle is required`,
		},
		{
			name: "null bundle",
			src:  `rule "x" { bundle = null }`,
			want: `rule "x": bundle is required`,
		},
		{
			name: "unknown attribute",
			src:  `default_bundle = "app"`,
			want: "failed to decode",
		},
		{
			name: "bad pattern",
			src: `rule "x" {
  pattern = "("
  bundle  = "x"
}`,
			want: `rule "x"`,
		},
		{
			name: "duplicate rule",
			src: `rule "x" { bundle = "a" }
rule "x" { bundle = "b" }`,
			want: `duplicate rule "x"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "test.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLLMFromEnv(t *testing.T) {
	t.Setenv(envLLMAPIKey, "")
	_, err := LLMFromEnv()
	require.Error(t, err)

	t.Setenv(envLLMAPIKey, "secret")
	t.Setenv(envLLMModel, "")
	t.Setenv(envLLMEndpoint, "http://localhost:9999/v1")
	got, err := LLMFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999/v1", got.Endpoint)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.NotContains(t, got.LogValue().String(), "secret")
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := extract(t, "-- .env --\n"+envLLMModel+"=from-file\n"+envLLMEndpoint+"=http://dotenv/v1\n")
	t.Setenv(envLLMModel, "from-env")
	t.Setenv(envLLMEndpoint, "")
	require.NoError(t, os.Unsetenv(envLLMEndpoint))

	LoadDotEnv(filepath.Join(dir, ".env"))

	assert.Equal(t, "from-env", os.Getenv(envLLMModel))
	assert.Equal(t, "http://dotenv/v1", os.Getenv(envLLMEndpoint))
}
