package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/entrhq/pagekit/pkg/browser"
)

// Environment variables
const (
	EnvBrowserType    = "BROWSER_TYPE"
	EnvHeadless       = "HEADLESS"
	EnvBrowserArgs    = "BROWSER_ARGS"
	EnvViewportWidth  = "VIEWPORT_WIDTH"
	EnvViewportHeight = "VIEWPORT_HEIGHT"
	EnvThreadCount    = "THREAD_COUNT"
	EnvBaseURL        = "URL_WEB"
	EnvBackOfficeURL  = "URL_BACK_OFFICE"
	EnvConfigFile     = "PAGEKIT_CONFIG"
	EnvArtifactsDir   = "PAGEKIT_ARTIFACTS_DIR"
	EnvLogDir         = "PAGEKIT_LOG_DIR"
)

// Default values for suite settings
const (
	defaultThreadCount  = 1
	defaultArtifactsDir = "./artifacts"
)

// ErrInvalidConfig is matched by every ConfigurationError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigurationError reports a missing or unusable setting.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s %s", e.Key, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// LookupFunc looks up a key from the environment.
type LookupFunc func(key string) (string, bool)

// Suite holds everything a test run needs to know before it starts.
type Suite struct {
	Engine        browser.EngineType
	Headless      bool
	Args          []string
	Viewport      browser.Viewport
	Threads       int
	BaseURL       string
	BackOfficeURL string
	ArtifactsDir  string
	LogDir        string

	// Warnings lists settings that were invalid and replaced by defaults.
	Warnings []string
}

// Defaults returns the settings used when nothing is configured.
func Defaults() *Suite {
	return &Suite{
		Engine:       browser.Chromium,
		Headless:     false,
		Viewport:     browser.Desktop1920x1080,
		Threads:      defaultThreadCount,
		ArtifactsDir: defaultArtifactsDir,
	}
}

// Validate checks the settings that have no usable default.
func (s *Suite) Validate() error {
	if strings.TrimSpace(s.BaseURL) == "" {
		return &ConfigurationError{Key: EnvBaseURL, Reason: "is required"}
	}
	if !s.Engine.Valid() {
		return &ConfigurationError{Key: EnvBrowserType, Reason: fmt.Sprintf("has unsupported value %q", s.Engine)}
	}
	if s.Threads < 1 {
		return &ConfigurationError{Key: EnvThreadCount, Reason: "must be at least 1"}
	}
	return nil
}

// Load builds suite settings from defaults, the optional YAML file named by
// PAGEKIT_CONFIG and then the environment. Environment values win.
// Unparseable values fall back to their default and are recorded in Warnings.
func Load(lookup LookupFunc) (*Suite, error) {
	s := Defaults()

	if path, ok := lookup(EnvConfigFile); ok && path != "" {
		store, err := NewFileStore(path)
		if err != nil {
			return nil, err
		}
		store.Apply(s)
	}

	s.applyEnv(lookup)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Suite) applyEnv(lookup LookupFunc) {
	envOpts := [...]string{
		EnvBrowserType,
		EnvHeadless,
		EnvBrowserArgs,
		EnvViewportWidth,
		EnvViewportHeight,
		EnvThreadCount,
		EnvBaseURL,
		EnvBackOfficeURL,
		EnvArtifactsDir,
		EnvLogDir,
	}

	width, height := s.Viewport.Width, s.Viewport.Height
	for _, e := range envOpts {
		ev, ok := lookup(e)
		if !ok || ev == "" {
			continue
		}
		switch e {
		case EnvBrowserType:
			s.setEngine(ev)
		case EnvHeadless:
			s.setBool(e, ev, &s.Headless)
		case EnvBrowserArgs:
			s.Args = parseListOpt(ev)
		case EnvViewportWidth:
			s.setInt(e, ev, &width)
		case EnvViewportHeight:
			s.setInt(e, ev, &height)
		case EnvThreadCount:
			s.setInt(e, ev, &s.Threads)
		case EnvBaseURL:
			s.BaseURL = strings.TrimSpace(ev)
		case EnvBackOfficeURL:
			s.BackOfficeURL = strings.TrimSpace(ev)
		case EnvArtifactsDir:
			s.ArtifactsDir = ev
		case EnvLogDir:
			s.LogDir = ev
		}
	}
	s.setViewport(width, height)
}

func (s *Suite) warnf(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

func (s *Suite) setEngine(v string) {
	engine, ok := browser.ParseEngineType(v)
	if !ok {
		s.warnf("%s=%q is not supported, using %s", EnvBrowserType, v, browser.Chromium)
		engine = browser.Chromium
	}
	s.Engine = engine
}

func (s *Suite) setBool(key, v string, dst *bool) {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		s.warnf("%s=%q should be a boolean, using %t", key, v, *dst)
		return
	}
	*dst = b
}

func (s *Suite) setInt(key, v string, dst *int) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		s.warnf("%s=%q should be a positive integer, using %d", key, v, *dst)
		return
	}
	*dst = n
}

func (s *Suite) setViewport(width, height int) {
	if width < 1 || height < 1 {
		s.warnf("viewport %dx%d is invalid, using %dx%d", width, height,
			browser.DefaultViewportWidth, browser.DefaultViewportHeight)
		s.Viewport = browser.Desktop1920x1080
		return
	}
	s.Viewport = browser.Viewport{Width: width, Height: height}
}

func parseListOpt(v string) []string {
	var out []string
	for _, elem := range strings.Split(v, ",") {
		if elem = strings.TrimSpace(elem); elem != "" {
			out = append(out, elem)
		}
	}
	return out
}
