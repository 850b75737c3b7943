package htmlsnap

import (
	"strings"

	"golang.org/x/net/html"

	"insight-exporter/internal/domain/dom"
)

var _ dom.Element = (*Element)(nil)

type Element struct {
	doc  *Document
	node *html.Node
}

func (e *Element) ID() string {
	return e.doc.nodeID(e.node)
}

func (e *Element) TagName() string {
	return e.node.Data
}

func (e *Element) Text() string {
	return strings.TrimSpace(textContent(e.node))
}

func (e *Element) HTML() string {
	var b strings.Builder
	_ = html.Render(&b, e.node)
	return b.String()
}

func (e *Element) Attribute(name string) (string, bool) {
	return attrOf(e.node, name)
}

func (e *Element) Query(selector string) (dom.Element, bool) {
	sel, err := e.doc.compile(selector)
	if err != nil {
		return nil, false
	}
	for _, m := range sel.MatchAll(e.node) {
		if m != e.node {
			return e.doc.element(m), true
		}
	}
	return nil, false
}

func (e *Element) QueryAll(selector string) []dom.Element {
	sel, err := e.doc.compile(selector)
	if err != nil {
		return nil
	}
	matches := sel.MatchAll(e.node)
	result := make([]dom.Element, 0, len(matches))
	for _, m := range matches {
		if m == e.node {
			continue
		}
		result = append(result, e.doc.element(m))
	}
	return result
}

func (e *Element) Parent() (dom.Element, bool) {
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil, false
	}
	return e.doc.element(p), true
}

func (e *Element) Previous() (dom.Element, bool) {
	for s := e.node.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return e.doc.element(s), true
		}
	}
	return nil, false
}

func (e *Element) Next() (dom.Element, bool) {
	for s := e.node.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return e.doc.element(s), true
		}
	}
	return nil, false
}

// ComputedStyle approximates what a layout engine would report, from
// inline styles, the hidden attribute, and per-tag display defaults.
// Stylesheet rules are invisible to a snapshot and are not consulted.
func (e *Element) ComputedStyle(property string) string {
	switch property {
	case "display":
		return displayOf(e.node)
	case "visibility":
		if v := inlineProperty(e.node, "visibility"); v != "" {
			return v
		}
		return "visible"
	case "overflow-x":
		if v := inlineProperty(e.node, "overflow-x"); v != "" {
			return v
		}
		if v := inlineProperty(e.node, "overflow"); v != "" {
			return v
		}
		return "visible"
	default:
		return inlineProperty(e.node, property)
	}
}

func (e *Element) InlineStyle(property string) string {
	return inlineProperty(e.node, property)
}

func (e *Element) SetInlineStyle(property, value string) error {
	setInlineProperty(e.node, property, value)
	return nil
}

// Box is synthesized: a static tree has no layout engine. Every rendered
// node reports the same rectangle; nodes inside a hidden subtree report
// none, which is what the visibility filter needs.
func (e *Element) Box() (dom.Box, bool) {
	for n := e.node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if displayOf(n) == "none" {
			return dom.Box{}, false
		}
	}
	return dom.Box{Width: 1024, Height: 768}, true
}

func (e *Element) ScrollLeft() float64 {
	return e.doc.scrollOf(e.node)
}

func (e *Element) SetScrollLeft(px float64) error {
	e.doc.setScroll(e.node, px)
	return nil
}

func (e *Element) ScrollIntoView() error { return nil }

func (e *Element) Focus() error { return nil }

func (e *Element) Screenshot() ([]byte, error) {
	return nil, errNoScreenshot
}
