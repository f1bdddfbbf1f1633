package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendSelection(t *testing.T) {
	t.Parallel()

	cfg := &Config{AnthropicAPIKey: "sk-ant", OpenAIAPIKey: "sk-oai"}
	kind, err := cfg.Backend()
	require.NoError(t, err)
	assert.Equal(t, BackendAnthropic, kind, "anthropic credential wins when both are set")

	cfg = &Config{OpenAIAPIKey: "sk-oai"}
	kind, err = cfg.Backend()
	require.NoError(t, err)
	assert.Equal(t, BackendOpenAI, kind)

	cfg = &Config{}
	_, err = cfg.Backend()
	require.Error(t, err)
}

func TestLoadProfile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "profile.txt")

	cfg := &Config{ProfilePath: path}
	_, err := cfg.LoadProfile()
	require.Error(t, err, "missing profile is fatal")

	require.NoError(t, os.WriteFile(path, []byte("  \n\t\n"), 0o644))
	_, err = cfg.LoadProfile()
	require.Error(t, err, "whitespace-only profile is fatal")

	require.NoError(t, os.WriteFile(path, []byte("Ten years of Go.\n"), 0o644))
	profile, err := cfg.LoadProfile()
	require.NoError(t, err)
	assert.Equal(t, "Ten years of Go.", profile)
}
