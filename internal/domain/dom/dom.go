// Package dom abstracts the renderable document tree the export pipeline
// operates on. Two implementations exist: a live Chrome page and a static
// HTML snapshot. Everything above the infrastructure layer talks to these
// interfaces only.
package dom

import (
	"context"
	"time"
)

// Box is an element's layout rectangle in CSS pixels.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Element is a single node of the renderable tree.
type Element interface {
	// ID is stable for the lifetime of the underlying node: repeated
	// lookups of the same physical node yield the same ID, which is what
	// discovery deduplication relies on.
	ID() string

	TagName() string
	Text() string
	HTML() string
	Attribute(name string) (string, bool)

	Query(selector string) (Element, bool)
	QueryAll(selector string) []Element
	Parent() (Element, bool)
	Previous() (Element, bool)
	Next() (Element, bool)

	ComputedStyle(property string) string
	InlineStyle(property string) string
	// SetInlineStyle with an empty value clears the property.
	SetInlineStyle(property, value string) error

	// Box reports the rendered layout rectangle. ok is false when the
	// node has no rendering box, such as inside a display:none subtree.
	Box() (Box, bool)
	ScrollLeft() float64
	SetScrollLeft(px float64) error

	ScrollIntoView() error
	Focus() error
	Click() error

	Screenshot() ([]byte, error)
}

// Document is one attached page or snapshot.
type Document interface {
	Root() (Element, error)

	// WaitStable blocks until no DOM mutations were observed for quiet,
	// or until ceiling has elapsed, whichever comes first. Hitting the
	// ceiling is not an error.
	WaitStable(ctx context.Context, quiet, ceiling time.Duration) error

	Title() string
	URL() string
	Screenshot() ([]byte, error)
}
