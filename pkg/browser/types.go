package browser

import (
	"strings"
	"time"
)

// EngineType selects the browser engine a session is launched with.
type EngineType string

const (
	// Chromium is the Chromium-compatible engine (default)
	Chromium EngineType = "chromium"

	// Firefox is the Firefox-compatible engine
	Firefox EngineType = "firefox"

	// WebKit is the WebKit-compatible engine, also accepted as "safari"
	WebKit EngineType = "webkit"
)

// Engines lists every supported engine variant.
var Engines = []EngineType{Chromium, Firefox, WebKit}

// ParseEngineType maps a user supplied name onto an engine variant.
// Matching is case-insensitive; the second result is false for unknown names.
func ParseEngineType(name string) (EngineType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "chromium", "chrome":
		return Chromium, true
	case "firefox":
		return Firefox, true
	case "webkit", "safari":
		return WebKit, true
	default:
		return "", false
	}
}

// Valid reports whether e is one of the supported engines.
func (e EngineType) Valid() bool {
	for _, known := range Engines {
		if e == known {
			return true
		}
	}
	return false
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// Viewport presets used across the suites.
var (
	Desktop1920x1080 = Viewport{Width: 1920, Height: 1080}
	Desktop1366x768  = Viewport{Width: 1366, Height: 768}
	Tablet768x1024   = Viewport{Width: 768, Height: 1024}
	Mobile375x667    = Viewport{Width: 375, Height: 667}
	Mobile360x640    = Viewport{Width: 360, Height: 640}
)

var presets = []Viewport{Desktop1920x1080, Desktop1366x768, Tablet768x1024, Mobile375x667, Mobile360x640}

// PresetFor returns the preset matching the given dimensions.
// Unknown dimensions map to Desktop1920x1080 with ok set to false.
func PresetFor(width, height int) (Viewport, bool) {
	for _, p := range presets {
		if p.Width == width && p.Height == height {
			return p, true
		}
	}
	return Desktop1920x1080, false
}

// Timeouts configures the default waits of a page session.
type Timeouts struct {
	// Action is the default timeout for element actions
	Action time.Duration

	// Navigation is the default timeout for page navigations
	Navigation time.Duration

	// LoadState bounds each load-state wait after a navigation
	LoadState time.Duration
}

// DefaultTimeouts returns the timeouts used when none are configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Action:     DefaultActionTimeout,
		Navigation: DefaultNavigationTimeout,
		LoadState:  DefaultLoadStateTimeout,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Action <= 0 {
		t.Action = DefaultActionTimeout
	}
	if t.Navigation <= 0 {
		t.Navigation = DefaultNavigationTimeout
	}
	if t.LoadState <= 0 {
		t.LoadState = DefaultLoadStateTimeout
	}
	return t
}

// PageState is the lifecycle state of a PageSession.
type PageState int

const (
	StateCreated PageState = iota
	StateConfigured
	StateNavigated
	StateClosed
)

func (s PageState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateConfigured:
		return "configured"
	case StateNavigated:
		return "navigated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Default values for sessions and pages
const (
	DefaultViewportWidth     = 1920
	DefaultViewportHeight    = 1080
	DefaultActionTimeout     = 20 * time.Second
	DefaultNavigationTimeout = 60 * time.Second
	DefaultLoadStateTimeout  = 20 * time.Second
)

func millis(d time.Duration) float64 {
	return float64(d.Milliseconds())
}
