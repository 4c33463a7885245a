package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var (
	// globalSuite is the settings of the current process
	globalSuite *Suite
	globalMu    sync.Mutex
)

// Initialize loads the .env files (if present), then the YAML file and the
// environment into the global suite settings. It should be called once at
// startup. Variables already set in the environment are never overridden
// by a .env file.
func Initialize(envFiles ...string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if err := loadDotEnv(envFiles...); err != nil {
		return err
	}

	suite, err := Load(os.LookupEnv)
	if err != nil {
		return err
	}

	globalSuite = suite
	return nil
}

func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Global returns the global suite settings.
// Panics if Initialize has not been called.
func Global() *Suite {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalSuite == nil {
		panic("config not initialized: call config.Initialize first")
	}
	return globalSuite
}

// IsInitialized returns true if the global settings have been loaded.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalSuite != nil
}

// reset clears the global settings between tests.
func reset() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalSuite = nil
}
