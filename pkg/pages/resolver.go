package pages

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"

	"github.com/entrhq/pagekit/pkg/browser"
	"github.com/entrhq/pagekit/pkg/execution"
)

// Default sections
const (
	SectionBackOffice = "bo"
	SectionPublic     = "en-us"
)

type entry struct {
	descriptor  Descriptor
	constructor Constructor
}

type sectionRule struct {
	pattern    string
	section    string
	backOffice bool
	g          glob.Glob
}

// Resolver is a static registry of page descriptors and constructors.
type Resolver struct {
	mu             sync.RWMutex
	entries        map[string]entry
	rules          []sectionRule
	defaultSection string
	nameFunc       NameFunc
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithNameFunc replaces DefaultName.
func WithNameFunc(f NameFunc) Option {
	return func(r *Resolver) error {
		if f == nil {
			return fmt.Errorf("name func must not be nil")
		}
		r.nameFunc = f
		return nil
	}
}

// WithSectionRule routes pages whose lowercase name matches pattern into
// section. Back-office rules resolve against BackOfficeURL when it is set.
// Rules are evaluated in the order they were added, before the defaults.
func WithSectionRule(pattern, section string, backOffice bool) Option {
	return func(r *Resolver) error {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return fmt.Errorf("invalid section pattern %q: %w", pattern, err)
		}
		r.rules = append(r.rules, sectionRule{pattern: pattern, section: section, backOffice: backOffice, g: g})
		return nil
	}
}

// WithDefaultSection sets the section used when no rule matches.
func WithDefaultSection(section string) Option {
	return func(r *Resolver) error {
		r.defaultSection = section
		return nil
	}
}

// NewResolver creates an empty resolver. Pages named "Bo..." go to the "bo"
// section of the back office, every other page to "en-us".
func NewResolver(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		entries:        make(map[string]entry),
		defaultSection: SectionPublic,
		nameFunc:       DefaultName,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if err := WithSectionRule("bo*", SectionBackOffice, true)(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Register binds name to a descriptor and constructor.
func (r *Resolver) Register(name string, d Descriptor, ctor Constructor) error {
	if name == "" {
		return fmt.Errorf("page name must not be empty")
	}
	if ctor == nil {
		return fmt.Errorf("page %s: constructor must not be nil", name)
	}
	if d.Absolute && d.URL == "" {
		return fmt.Errorf("page %s: absolute descriptor needs a URL", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("page %s already registered", name)
	}
	r.entries[name] = entry{descriptor: d, constructor: ctor}
	return nil
}

// MustRegister is Register that panics on error, for package-level wiring.
func (r *Resolver) MustRegister(name string, d Descriptor, ctor Constructor) {
	if err := r.Register(name, d, ctor); err != nil {
		panic(err)
	}
}

// Names returns every registered page name, sorted.
func (r *Resolver) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptor returns the descriptor registered for name.
func (r *Resolver) Descriptor(name string) (Descriptor, error) {
	e, err := r.lookup(name)
	if err != nil {
		return Descriptor{}, err
	}
	return e.descriptor, nil
}

func (r *Resolver) lookup(name string) (entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return entry{}, &MissingDescriptorError{Page: name}
	}
	return e, nil
}

// Resolve returns the URL of page name for the worker context ec.
//
// Absolute descriptors are returned verbatim. Relative ones are joined as
// base + "/" + section + "/" + url with duplicate slashes collapsed.
func (r *Resolver) Resolve(name string, ec *execution.Context) (string, error) {
	e, err := r.lookup(name)
	if err != nil {
		return "", err
	}

	d := e.descriptor
	if d.Absolute {
		return d.URL, nil
	}

	endpoint := d.URL
	if endpoint == "" {
		endpoint = r.nameFunc(name)
	}

	if ec == nil {
		return "", fmt.Errorf("resolve %s: %w", name, execution.ErrNoActiveSession)
	}

	section, backOffice := r.section(name)
	base := ec.BaseURL
	if backOffice && ec.BackOfficeURL != "" {
		base = ec.BackOfficeURL
	}
	if base == "" {
		return "", fmt.Errorf("resolve %s: %w", name, ErrNoBaseURL)
	}

	return joinURL(base, section, endpoint), nil
}

// ResolveWithParams resolves name and fills %s/%d placeholders in the URL.
func (r *Resolver) ResolveWithParams(name string, ec *execution.Context, params ...any) (string, error) {
	url, err := r.Resolve(name, ec)
	if err != nil || len(params) == 0 {
		return url, err
	}

	formatted := fmt.Sprintf(url, params...)
	if strings.Contains(formatted, "%!") {
		return "", fmt.Errorf("resolve %s with %v: %w", name, params, ErrBadParams)
	}
	return formatted, nil
}

// Instantiate builds the page object registered as name. Constructor errors
// and panics are returned as *PageInitializationError.
func (r *Resolver) Instantiate(name string, pc *browser.PageContext) (obj Object, err error) {
	e, err := r.lookup(name)
	if err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			obj = nil
			err = &PageInitializationError{Page: name, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()

	obj, err = e.constructor(pc)
	if err != nil {
		return nil, &PageInitializationError{Page: name, Err: err}
	}
	if obj == nil {
		return nil, &PageInitializationError{Page: name, Err: fmt.Errorf("constructor returned nil")}
	}
	return obj, nil
}

// Open resolves name, builds its page object and navigates to it.
func (r *Resolver) Open(name string, ec *execution.Context, pc *browser.PageContext, params ...any) (Object, browser.NavigationResult, error) {
	url, err := r.ResolveWithParams(name, ec, params...)
	if err != nil {
		return nil, browser.NavigationResult{}, err
	}

	obj, err := r.Instantiate(name, pc)
	if err != nil {
		return nil, browser.NavigationResult{}, err
	}

	result, err := obj.Navigate(url)
	if err != nil {
		return nil, result, err
	}
	return obj, result, nil
}

func (r *Resolver) section(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, rule := range r.rules {
		if rule.g.Match(lower) {
			return rule.section, rule.backOffice
		}
	}
	return r.defaultSection, false
}

func joinURL(base string, parts ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, part := range parts {
		for _, seg := range strings.Split(part, "/") {
			if seg == "" {
				continue
			}
			b.WriteByte('/')
			b.WriteString(seg)
		}
	}
	return b.String()
}
