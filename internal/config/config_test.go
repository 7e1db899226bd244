package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henrybloomingdale/medlit/internal/classify"
	"github.com/henrybloomingdale/medlit/internal/ncbi"
	"github.com/henrybloomingdale/medlit/internal/query"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "medlit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NCBI_API_KEY", "")
	t.Setenv("MEDLIT_API_KEY", "")

	cfg, used, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, query.DefaultLimit, cfg.Limit)
	assert.Equal(t, query.Structured, cfg.SearchMode())
	assert.Equal(t, classify.NameAllWords, cfg.ClassifierPolicy().Name())
	assert.Equal(t, query.DefaultCountry, cfg.RegionCountry)
	assert.Equal(t, ncbi.DefaultBaseURL, cfg.EutilsOrigin)
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
limit: 25
mode: html
policy: substring
region_country: Japan
mirror_origin: https://mirror.example
`)
	cfg, used, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 25, cfg.Limit)
	assert.Equal(t, query.HTML, cfg.SearchMode())
	assert.Equal(t, classify.NameSubstring, cfg.ClassifierPolicy().Name())
	assert.Equal(t, "Japan", cfg.RegionCountry)
	assert.Equal(t, "https://mirror.example", cfg.MirrorOrigin)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "limit: 25\n")
	t.Setenv("MEDLIT_LIMIT", "40")
	t.Setenv("MEDLIT_API_KEY", "")
	t.Setenv("NCBI_API_KEY", "from-ncbi-env")

	cfg, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Limit)
	assert.Equal(t, "from-ncbi-env", cfg.APIKey)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"limit":       "limit: 500\n",
		"concurrency": "concurrency: 0\n",
		"mode":        "mode: telepathy\n",
		"policy":      "policy: fuzzy\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
