package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/entrhq/pagekit/pkg/config"
	"github.com/entrhq/pagekit/pkg/diagnostics"
	"github.com/entrhq/pagekit/pkg/logging"
	"github.com/entrhq/pagekit/pkg/pages"
	"github.com/entrhq/pagekit/pkg/pages/shop"
	"github.com/entrhq/pagekit/pkg/suite"
)

// smoke opens every registered shop page once and prints a report.
func smoke(ctx context.Context, cfg *config.Suite, timeout time.Duration, stdout io.Writer, opts ...suite.Option) error {
	logger, err := logging.NewLoggerIn(cfg.LogDir, "pagekit")
	if err != nil {
		fmt.Fprintf(stdout, "Warning: logging to stderr: %v\n", err)
	}
	defer logger.Close()

	for _, w := range cfg.Warnings {
		logger.Warnf("%s", w)
		fmt.Fprintf(stdout, "Warning: %s\n", w)
	}

	resolver, err := pages.NewResolver()
	if err != nil {
		return err
	}
	if err := shop.Register(resolver); err != nil {
		return err
	}

	capturer := diagnostics.NewCapturer(cfg.ArtifactsDir, logger.With("diagnostics"))
	all := append([]suite.Option{
		suite.WithLogger(logger),
		suite.WithResolver(resolver),
		suite.WithDiagnosticHook(suite.CaptureHook(capturer)),
	}, opts...)
	s := suite.New(cfg, all...)

	start := time.Now()
	report, err := s.Run(ctx, smokeTests(resolver, timeout))
	if err != nil {
		return err
	}

	printReport(stdout, report, time.Since(start))
	if failed := report.Failed(); len(failed) > 0 {
		fmt.Fprintf(stdout, "Artifacts: %s\n", capturer.Dir())
		fmt.Fprintf(stdout, "Logs: %s\n", logger.LogPath())
		return errTestsFailed
	}
	return nil
}

func smokeTests(r *pages.Resolver, timeout time.Duration) []suite.Test {
	names := r.Names()
	tests := make([]suite.Test, 0, len(names))
	for _, name := range names {
		tests = append(tests, suite.Test{
			Name:    "open " + name,
			Timeout: timeout,
			Run: func(t *suite.T) error {
				_, err := t.Open(name)
				return err
			},
		})
	}
	return tests
}

func printReport(w io.Writer, report *suite.Report, elapsed time.Duration) {
	for _, res := range report.Results {
		status := "PASS"
		if !res.Passed() {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s  %-40s %s %s\n", status, res.Name, res.Worker, res.Duration.Round(time.Millisecond))
		if res.Err != nil {
			fmt.Fprintf(w, "      %v\n", res.Err)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed in %s\n",
		len(report.Results)-len(report.Failed()), len(report.Failed()), elapsed.Round(time.Millisecond))
}
