// Package main provides the pagekit command: browser installation, a smoke
// run over every registered page and configuration scaffolding.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/entrhq/pagekit/pkg/browser"
	"github.com/entrhq/pagekit/pkg/config"
)

const version = "0.1.0"

// errTestsFailed makes the process exit non-zero without a second message.
var errTestsFailed = errors.New("one or more tests failed")

// CLIConfig holds command-line configuration
type CLIConfig struct {
	Command    string
	EnvFiles   []string
	Engines    []string
	Timeout    time.Duration
	ConfigFile string
}

func main() {
	cliConfig, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Printf("%v", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down, closing browsers...")
		cancel()
	}()

	if err := run(ctx, cliConfig, os.Stdout); err != nil {
		cancel()
		if !errors.Is(err, errTestsFailed) {
			log.Printf("pagekit %s failed: %v", cliConfig.Command, err)
		}
		os.Exit(1)
	}
	cancel()
}

// parseArgs parses the subcommand and its flags
func parseArgs(args []string, stderr io.Writer) (*CLIConfig, error) {
	fs := flag.NewFlagSet("pagekit", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cliConfig := &CLIConfig{}
	var envFiles, engines string
	fs.StringVar(&envFiles, "env", ".env", "Comma separated .env files to load")
	fs.StringVar(&engines, "browsers", "", "Comma separated engines to install (default: all)")
	fs.DurationVar(&cliConfig.Timeout, "timeout", time.Minute, "Per-test timeout for smoke runs")
	fs.StringVar(&cliConfig.ConfigFile, "out", "pagekit.yaml", "Settings file written by the config command")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "pagekit - page object test runner\n\n")
		fmt.Fprintf(stderr, "Usage: pagekit <install|smoke|config|version> [options]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  # Install Chromium only\n")
		fmt.Fprintf(stderr, "  pagekit install -browsers chromium\n\n")
		fmt.Fprintf(stderr, "  # Open every shop page on 4 workers\n")
		fmt.Fprintf(stderr, "  URL_WEB=https://shop.example.com THREAD_COUNT=4 pagekit smoke\n\n")
	}

	if len(args) == 0 {
		fs.Usage()
		return nil, fmt.Errorf("missing command")
	}
	cliConfig.Command = args[0]
	if strings.HasPrefix(cliConfig.Command, "-") {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		fs.Usage()
		return nil, fmt.Errorf("missing command")
	}
	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	cliConfig.EnvFiles = splitList(envFiles)
	cliConfig.Engines = splitList(engines)
	return cliConfig, nil
}

func run(ctx context.Context, cliConfig *CLIConfig, stdout io.Writer) error {
	switch cliConfig.Command {
	case "version":
		fmt.Fprintf(stdout, "pagekit v%s\n", version)
		return nil
	case "install":
		return install(cliConfig.Engines, stdout)
	case "smoke":
		if err := config.Initialize(cliConfig.EnvFiles...); err != nil {
			return fmt.Errorf("failed to initialize configuration: %w", err)
		}
		return smoke(ctx, config.Global(), cliConfig.Timeout, stdout)
	case "config":
		return writeConfig(cliConfig, stdout)
	default:
		return fmt.Errorf("unknown command %q", cliConfig.Command)
	}
}

func install(names []string, stdout io.Writer) error {
	engines, err := parseEngines(names)
	if err != nil {
		return err
	}
	if err := browser.Install(engines...); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Installed browsers: %s\n", engineList(engines))
	return nil
}

// writeConfig saves the effective settings so they can be edited and passed
// back through PAGEKIT_CONFIG.
func writeConfig(cliConfig *CLIConfig, stdout io.Writer) error {
	if err := config.Initialize(cliConfig.EnvFiles...); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	store, err := config.NewFileStore(cliConfig.ConfigFile)
	if err != nil {
		return err
	}
	store.SetSettings(config.SettingsFrom(config.Global()))
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", store.Path())
	return nil
}

func parseEngines(names []string) ([]browser.EngineType, error) {
	if len(names) == 0 {
		return browser.Engines, nil
	}
	engines := make([]browser.EngineType, 0, len(names))
	for _, name := range names {
		engine, ok := browser.ParseEngineType(name)
		if !ok {
			return nil, &browser.UnsupportedEngineError{Engine: browser.EngineType(name)}
		}
		engines = append(engines, engine)
	}
	return engines, nil
}

func engineList(engines []browser.EngineType) string {
	names := make([]string, len(engines))
	for i, e := range engines {
		names[i] = string(e)
	}
	return strings.Join(names, ", ")
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
