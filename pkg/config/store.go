package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileSettings is the YAML form of the suite settings. Unset keys keep the
// value they already had.
type FileSettings struct {
	BrowserType    string   `yaml:"browser_type,omitempty"`
	Headless       *bool    `yaml:"headless,omitempty"`
	BrowserArgs    []string `yaml:"browser_args,omitempty"`
	ViewportWidth  int      `yaml:"viewport_width,omitempty"`
	ViewportHeight int      `yaml:"viewport_height,omitempty"`
	ThreadCount    int      `yaml:"thread_count,omitempty"`
	URLWeb         string   `yaml:"url_web,omitempty"`
	URLBackOffice  string   `yaml:"url_back_office,omitempty"`
	ArtifactsDir   string   `yaml:"artifacts_dir,omitempty"`
	LogDir         string   `yaml:"log_dir,omitempty"`
}

// FileStore reads and writes suite settings as a YAML file.
type FileStore struct {
	path     string
	settings FileSettings
}

// NewFileStore opens the YAML settings file at path.
// A missing file yields an empty store; a malformed one is an error.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path must not be empty")
	}

	store := &FileStore{path: path}
	if err := store.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return store, nil
}

// Load reads the file from disk.
func (s *FileStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var settings FileSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}
	s.settings = settings
	return nil
}

// Save writes the settings atomically.
func (s *FileStore) Save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(&s.settings)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Settings returns a copy of the file settings.
func (s *FileStore) Settings() FileSettings {
	return s.settings
}

// SetSettings replaces the file settings. Call Save to persist them.
func (s *FileStore) SetSettings(fs FileSettings) {
	s.settings = fs
}

// Path returns the file path of the store.
func (s *FileStore) Path() string {
	return s.path
}

// Apply copies every set key into suite.
func (s *FileStore) Apply(suite *Suite) {
	fs := s.settings
	if fs.BrowserType != "" {
		suite.setEngine(fs.BrowserType)
	}
	if fs.Headless != nil {
		suite.Headless = *fs.Headless
	}
	if len(fs.BrowserArgs) > 0 {
		suite.Args = append([]string(nil), fs.BrowserArgs...)
	}
	if fs.ViewportWidth > 0 {
		suite.Viewport.Width = fs.ViewportWidth
	}
	if fs.ViewportHeight > 0 {
		suite.Viewport.Height = fs.ViewportHeight
	}
	if fs.ThreadCount > 0 {
		suite.Threads = fs.ThreadCount
	}
	if fs.URLWeb != "" {
		suite.BaseURL = strings.TrimSpace(fs.URLWeb)
	}
	if fs.URLBackOffice != "" {
		suite.BackOfficeURL = strings.TrimSpace(fs.URLBackOffice)
	}
	if fs.ArtifactsDir != "" {
		suite.ArtifactsDir = fs.ArtifactsDir
	}
	if fs.LogDir != "" {
		suite.LogDir = fs.LogDir
	}
}

// SettingsFrom converts suite settings back to their file form.
func SettingsFrom(suite *Suite) FileSettings {
	headless := suite.Headless
	return FileSettings{
		BrowserType:    string(suite.Engine),
		Headless:       &headless,
		BrowserArgs:    suite.Args,
		ViewportWidth:  suite.Viewport.Width,
		ViewportHeight: suite.Viewport.Height,
		ThreadCount:    suite.Threads,
		URLWeb:         suite.BaseURL,
		URLBackOffice:  suite.BackOfficeURL,
		ArtifactsDir:   suite.ArtifactsDir,
		LogDir:         suite.LogDir,
	}
}
