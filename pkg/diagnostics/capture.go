// Package diagnostics captures evidence from a browser session when a test
// fails: a full-page screenshot and a cleaned DOM snapshot of every open page.
package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/pagekit/pkg/browser"
	"github.com/entrhq/pagekit/pkg/logging"
)

// ArtifactKind tells screenshots and DOM snapshots apart.
type ArtifactKind string

const (
	KindScreenshot ArtifactKind = "screenshot"
	KindDOM        ArtifactKind = "dom"
)

// Artifact is one file written for a failed test.
type Artifact struct {
	Kind    ArtifactKind
	Path    string
	PageURL string
}

// Capturer writes failure artifacts below a directory.
type Capturer struct {
	dir    string
	maxDOM int
	logger *logging.Logger
	now    func() time.Time
}

// NewCapturer creates a capturer writing into dir.
func NewCapturer(dir string, logger *logging.Logger) *Capturer {
	if logger == nil {
		logger = logging.Discard("diagnostics")
	}
	return &Capturer{
		dir:    dir,
		maxDOM: DefaultSnapshotLength,
		logger: logger,
		now:    time.Now,
	}
}

// Dir returns the artifact directory.
func (c *Capturer) Dir() string {
	return c.dir
}

// Capture screenshots every page of every context in session and stores a
// DOM snapshot next to each screenshot. A page that cannot be captured does
// not stop the others; all failures are joined into the returned error.
func (c *Capturer) Capture(session *browser.BrowserSession, testName string) ([]Artifact, error) {
	if session == nil || session.Browser == nil {
		c.logger.Warnf("%s: no diagnostics: %v", testName, browser.ErrSessionClosed)
		return nil, browser.ErrSessionClosed
	}

	var pages []playwright.Page
	for _, bc := range session.Browser.Contexts() {
		pages = append(pages, bc.Pages()...)
	}
	if len(pages) == 0 {
		c.logger.Warnf("%s: no diagnostics: %v", testName, browser.ErrNoPage)
		return nil, browser.ErrNoPage
	}

	if err := os.MkdirAll(c.dir, 0750); err != nil {
		err = fmt.Errorf("failed to create artifacts directory: %w", err)
		c.logger.Warnf("%s: no diagnostics: %v", testName, err)
		return nil, err
	}

	prefix := fmt.Sprintf("%s-%s", c.now().Format("20060102-150405"), sanitize(testName))

	var (
		artifacts []Artifact
		errs      []error
	)
	for i, page := range pages {
		base := filepath.Join(c.dir, fmt.Sprintf("%s-%d", prefix, i+1))
		url := page.URL()

		if a, err := c.screenshot(page, base+".png", url); err != nil {
			errs = append(errs, err)
		} else {
			artifacts = append(artifacts, a)
		}

		if a, err := c.dom(page, base+".html", url); err != nil {
			errs = append(errs, err)
		} else {
			artifacts = append(artifacts, a)
		}
	}

	for _, a := range artifacts {
		c.logger.Infof("%s: saved %s of %s to %s", testName, a.Kind, a.PageURL, a.Path)
	}
	err := errors.Join(errs...)
	if err != nil {
		c.logger.Warnf("%s: incomplete diagnostics: %v", testName, err)
	}
	return artifacts, err
}

func (c *Capturer) screenshot(page playwright.Page, path, url string) (Artifact, error) {
	data, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("screenshot %s: %w", url, err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return Artifact{}, fmt.Errorf("write screenshot: %w", err)
	}
	return Artifact{Kind: KindScreenshot, Path: path, PageURL: url}, nil
}

func (c *Capturer) dom(page playwright.Page, path, url string) (Artifact, error) {
	raw, err := page.Content()
	if err != nil {
		return Artifact{}, fmt.Errorf("read content of %s: %w", url, err)
	}

	snap, err := Snapshot(raw, c.maxDOM)
	if err != nil {
		return Artifact{}, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<!-- url: %s -->\n", url)
	if snap.Title != "" {
		fmt.Fprintf(&b, "<!-- title: %s -->\n", snap.Title)
	}
	if len(snap.TestHooks) > 0 {
		fmt.Fprintf(&b, "<!-- %s: %s -->\n", testHookAttr, strings.Join(snap.TestHooks, ", "))
	}
	if snap.Truncated {
		b.WriteString("<!-- truncated -->\n")
	}
	b.WriteString(snap.HTML)
	b.WriteString("\n")

	if err := os.WriteFile(path, []byte(b.String()), 0640); err != nil {
		return Artifact{}, fmt.Errorf("write DOM snapshot: %w", err)
	}
	return Artifact{Kind: KindDOM, Path: path, PageURL: url}, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitize(name string) string {
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
	if name == "" {
		return "test"
	}
	return name
}
