package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagekit/pkg/browser"
)

func lookupFrom(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(lookupFrom(map[string]string{
		EnvBaseURL: "https://shop.example.com",
	}))
	require.NoError(t, err)

	assert.Equal(t, browser.Chromium, s.Engine)
	assert.False(t, s.Headless)
	assert.Equal(t, browser.Desktop1920x1080, s.Viewport)
	assert.Equal(t, 1, s.Threads)
	assert.Equal(t, "./artifacts", s.ArtifactsDir)
	assert.Empty(t, s.Warnings)
}

func TestLoad_Environment(t *testing.T) {
	s, err := Load(lookupFrom(map[string]string{
		EnvBrowserType:    "safari",
		EnvHeadless:       "true",
		EnvBrowserArgs:    "--mute-audio, --lang=de-DE,",
		EnvViewportWidth:  "375",
		EnvViewportHeight: "667",
		EnvThreadCount:    "4",
		EnvBaseURL:        " https://shop.example.com ",
		EnvBackOfficeURL:  "https://admin.example.com",
		EnvArtifactsDir:   "/tmp/out",
		EnvLogDir:         "/tmp/logs",
	}))
	require.NoError(t, err)

	assert.Equal(t, browser.WebKit, s.Engine)
	assert.True(t, s.Headless)
	assert.Equal(t, []string{"--mute-audio", "--lang=de-DE"}, s.Args)
	assert.Equal(t, browser.Mobile375x667, s.Viewport)
	assert.Equal(t, 4, s.Threads)
	assert.Equal(t, "https://shop.example.com", s.BaseURL)
	assert.Equal(t, "https://admin.example.com", s.BackOfficeURL)
	assert.Equal(t, "/tmp/out", s.ArtifactsDir)
	assert.Equal(t, "/tmp/logs", s.LogDir)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	s, err := Load(lookupFrom(map[string]string{
		EnvBaseURL:       "https://shop.example.com",
		EnvBrowserType:   "opera",
		EnvHeadless:      "maybe",
		EnvThreadCount:   "zero",
		EnvViewportWidth: "-5",
	}))
	require.NoError(t, err)

	assert.Equal(t, browser.Chromium, s.Engine)
	assert.False(t, s.Headless)
	assert.Equal(t, 1, s.Threads)
	assert.Equal(t, browser.Desktop1920x1080, s.Viewport)
	assert.Len(t, s.Warnings, 4)
}

func TestLoad_MissingBaseURL(t *testing.T) {
	_, err := Load(lookupFrom(map[string]string{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, EnvBaseURL, ce.Key)
}

func TestLoad_YAMLFileEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagekit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
browser_type: firefox
headless: true
thread_count: 3
url_web: https://file.example.com
url_back_office: https://admin.example.com
viewport_width: 1366
viewport_height: 768
`), 0644))

	s, err := Load(lookupFrom(map[string]string{
		EnvConfigFile:  path,
		EnvBaseURL:     "https://env.example.com",
		EnvThreadCount: "2",
	}))
	require.NoError(t, err)

	assert.Equal(t, browser.Firefox, s.Engine)
	assert.True(t, s.Headless)
	assert.Equal(t, 2, s.Threads)
	assert.Equal(t, "https://env.example.com", s.BaseURL)
	assert.Equal(t, "https://admin.example.com", s.BackOfficeURL)
	assert.Equal(t, browser.Desktop1366x768, s.Viewport)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagekit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("thread_count: [1, 2"), 0644))

	_, err := Load(lookupFrom(map[string]string{
		EnvConfigFile: path,
		EnvBaseURL:    "https://shop.example.com",
	}))
	assert.Error(t, err)
}

func TestInitialize(t *testing.T) {
	t.Run("loads .env without overriding the environment", func(t *testing.T) {
		reset()
		t.Cleanup(reset)

		envFile := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(envFile, []byte("URL_WEB=https://dotenv.example.com\nTHREAD_COUNT=6\n"), 0644))

		t.Setenv(EnvThreadCount, "2")
		t.Setenv(EnvConfigFile, "")
		// godotenv sets URL_WEB for the process; t.Setenv restores it afterwards
		t.Setenv(EnvBaseURL, "")
		require.NoError(t, os.Unsetenv(EnvBaseURL))

		require.NoError(t, Initialize(envFile))
		require.True(t, IsInitialized())

		s := Global()
		assert.Equal(t, "https://dotenv.example.com", s.BaseURL)
		assert.Equal(t, 2, s.Threads)
	})

	t.Run("missing .env is not an error", func(t *testing.T) {
		reset()
		t.Cleanup(reset)

		t.Setenv(EnvBaseURL, "https://shop.example.com")
		t.Setenv(EnvConfigFile, "")
		require.NoError(t, Initialize(filepath.Join(t.TempDir(), "absent.env")))
		assert.Equal(t, "https://shop.example.com", Global().BaseURL)
	})

	t.Run("global panics before initialize", func(t *testing.T) {
		reset()
		assert.False(t, IsInitialized())
		assert.Panics(t, func() { Global() })
	})
}
