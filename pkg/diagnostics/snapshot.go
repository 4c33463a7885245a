package diagnostics

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// DefaultSnapshotLength bounds the text written for one DOM snapshot.
const DefaultSnapshotLength = 200_000

// testHookAttr is the attribute page objects locate elements by.
const testHookAttr = "data-ui-test"

// DOMSnapshot is a readable, script-free copy of a page's markup.
type DOMSnapshot struct {
	HTML      string
	Title     string
	TestHooks []string
	Truncated bool
}

var (
	droppedElements = set("script", "style", "noscript", "iframe", "embed", "object", "svg", "link", "meta")
	blockElements   = set("div", "p", "section", "article", "header", "footer", "nav", "main", "aside",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table", "tr", "td", "th",
		"form", "fieldset", "blockquote", "pre", "dialog")
	voidElements = set("area", "base", "br", "col", "embed", "hr", "img", "input", "link", "meta",
		"param", "source", "track", "wbr")
	keptAttributes = set("id", "class", "role", "name", "type", "href", "value", "placeholder",
		"disabled", "aria-label", "aria-hidden", "aria-invalid")
)

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

// Snapshot parses raw page content and keeps only what helps debug a failed
// locator: structure, ids, classes, form state and data-* attributes.
func Snapshot(raw string, maxLength int) (*DOMSnapshot, error) {
	if maxLength <= 0 {
		maxLength = DefaultSnapshotLength
	}

	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page content: %w", err)
	}

	w := &snapshotWriter{max: maxLength, hooks: map[string]bool{}}
	w.node(doc, 0)

	snap := &DOMSnapshot{
		HTML:      w.b.String(),
		Title:     w.title,
		Truncated: w.truncated,
	}
	for hook := range w.hooks {
		snap.TestHooks = append(snap.TestHooks, hook)
	}
	sort.Strings(snap.TestHooks)
	return snap, nil
}

type snapshotWriter struct {
	b         strings.Builder
	max       int
	truncated bool
	title     string
	hooks     map[string]bool
}

func (w *snapshotWriter) full() bool {
	if w.b.Len() >= w.max {
		w.truncated = true
	}
	return w.truncated
}

func (w *snapshotWriter) node(n *html.Node, depth int) {
	if w.full() {
		return
	}

	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if tag == "title" && w.title == "" && n.FirstChild != nil {
			w.title = strings.TrimSpace(n.FirstChild.Data)
		}
		if droppedElements[tag] {
			return
		}
		w.element(n, tag, depth)
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c, depth)
	}
}

func (w *snapshotWriter) text(data string) {
	text := strings.Join(strings.Fields(data), " ")
	if text == "" {
		return
	}
	if room := w.max - w.b.Len(); len(text) > room {
		text = text[:room] + "..."
		w.truncated = true
	}
	w.b.WriteString(text)
}

func (w *snapshotWriter) element(n *html.Node, tag string, depth int) {
	block := blockElements[tag]
	if block && depth > 0 {
		w.newline(depth)
	}

	w.b.WriteString("<" + tag)
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key == testHookAttr {
			w.hooks[attr.Val] = true
		}
		if keptAttributes[key] || strings.HasPrefix(key, "data-") {
			fmt.Fprintf(&w.b, ` %s="%s"`, key, html.EscapeString(attr.Val))
		}
	}
	w.b.WriteString(">")

	if voidElements[tag] {
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.node(c, depth+1)
	}

	if block {
		w.newline(depth)
	}
	w.b.WriteString("</" + tag + ">")
}

func (w *snapshotWriter) newline(depth int) {
	w.b.WriteString("\n")
	w.b.WriteString(strings.Repeat("  ", depth))
}
