// Package pages maps page object names to their endpoints and constructors,
// and resolves those endpoints against a worker's target application.
package pages

import (
	"errors"
	"fmt"
	"strings"

	"github.com/serenize/snaker"

	"github.com/entrhq/pagekit/pkg/browser"
)

var (
	ErrMissingDescriptor = errors.New("page descriptor not registered")
	ErrNoBaseURL         = errors.New("execution context has no base URL")
	ErrBadParams         = errors.New("url parameters do not match placeholders")
)

// Descriptor declares where a page lives. An empty URL asks the resolver to
// derive one from the page name.
type Descriptor struct {
	Absolute bool
	URL      string
}

// Path declares a page relative to the application base URL.
func Path(url string) Descriptor {
	return Descriptor{URL: url}
}

// Absolute declares a page by its full URL.
func Absolute(url string) Descriptor {
	return Descriptor{Absolute: true, URL: url}
}

// Object is a constructed page object.
type Object interface {
	browser.Capabilities
}

// Constructor builds a page object on top of a page context.
type Constructor func(pc *browser.PageContext) (Object, error)

// NameFunc derives an endpoint from a page name when its descriptor has none.
type NameFunc func(name string) string

// DefaultName turns "TwoFactorVerificationPage" into "/two_factor_verification".
func DefaultName(name string) string {
	name = strings.TrimSuffix(name, "Page")
	if name == "" {
		return "/"
	}
	return "/" + snaker.CamelToSnake(name)
}

// MissingDescriptorError is returned for names that were never registered.
type MissingDescriptorError struct {
	Page string
}

func (e *MissingDescriptorError) Error() string {
	return fmt.Sprintf("page %s is not registered with a descriptor", e.Page)
}

func (e *MissingDescriptorError) Is(target error) bool {
	return target == ErrMissingDescriptor
}

// PageInitializationError wraps a constructor failure or panic.
type PageInitializationError struct {
	Page string
	Err  error
}

func (e *PageInitializationError) Error() string {
	return fmt.Sprintf("failed to initialize page object %s: %v", e.Page, e.Err)
}

func (e *PageInitializationError) Unwrap() error {
	return e.Err
}
