// Package htmlsnap backs the dom interfaces with a parsed static HTML
// snapshot, so the pipeline can export saved dashboard pages without a
// browser. Tab activation is emulated by rewriting the tab attributes the
// way the live widget would, which keeps the collector's walk working
// against a tree that has no script engine.
package htmlsnap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"insight-exporter/internal/domain/dom"
)

var (
	ErrSnapshotParse = errors.New("snapshot parse failed")

	errNoScreenshot = errors.New("screenshots require a live browser")
)

var _ dom.Document = (*Document)(nil)

type Document struct {
	root   *html.Node
	body   *html.Node
	source string

	mu        sync.Mutex
	ids       map[*html.Node]string
	nextID    int
	scrolls   map[*html.Node]float64
	selectors map[string]cascadia.Selector
}

func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, err
	}
	doc.source = path
	return doc, nil
}

func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotParse, err)
	}
	body := findFirst(root, "body")
	if body == nil {
		return nil, fmt.Errorf("%w: no body element", ErrSnapshotParse)
	}
	return &Document{
		root:      root,
		body:      body,
		ids:       make(map[*html.Node]string),
		scrolls:   make(map[*html.Node]float64),
		selectors: make(map[string]cascadia.Selector),
	}, nil
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func (d *Document) Root() (dom.Element, error) {
	return d.element(d.body), nil
}

// WaitStable returns immediately: a static tree is always settled.
func (d *Document) WaitStable(ctx context.Context, quiet, ceiling time.Duration) error {
	return ctx.Err()
}

func (d *Document) Title() string {
	if title := findFirst(d.root, "title"); title != nil {
		return strings.TrimSpace(textContent(title))
	}
	return ""
}

func (d *Document) URL() string {
	if d.source == "" {
		return "about:snapshot"
	}
	return "file://" + d.source
}

func (d *Document) Screenshot() ([]byte, error) {
	return nil, errNoScreenshot
}

func (d *Document) element(n *html.Node) *Element {
	return &Element{doc: d, node: n}
}

func (d *Document) nodeID(n *html.Node) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.ids[n]; ok {
		return id
	}
	d.nextID++
	id := "snap-" + strconv.Itoa(d.nextID)
	d.ids[n] = id
	return id
}

func (d *Document) compile(expr string) (cascadia.Selector, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if sel, ok := d.selectors[expr]; ok {
		return sel, nil
	}
	sel, err := cascadia.Compile(expr)
	if err != nil {
		return nil, err
	}
	d.selectors[expr] = sel
	return sel, nil
}

func (d *Document) scrollOf(n *html.Node) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scrolls[n]
}

func (d *Document) setScroll(n *html.Node, px float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scrolls[n] = px
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}
