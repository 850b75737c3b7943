package extraction

import (
	"strings"

	"insight-exporter/internal/domain/dom"
)

// maxAncestorDepth bounds the search for a scroll container above a table.
const maxAncestorDepth = 10

// scrollClassMarkers are wrapper classes dashboards use for horizontally
// scrollable table regions, recognized even when the computed style is
// not reported as scrollable.
var scrollClassMarkers = []string{
	"overflow-x-auto",
	"overflow-auto",
	"overflow-x-scroll",
	"table-container",
	"table-wrapper",
}

// neutralizeScroll lifts the clipping around a table so every column is
// rendered: the scroll container loses its overflow constraint and
// scroll offset, the table loses its width caps. The returned restore
// func puts all four recorded values back and never fails; problems are
// logged.
func (e *Extractor) neutralizeScroll(table dom.Element) func() {
	container, hasContainer := e.scrollContainer(table)

	var scrollLeft float64
	var overflowX string
	if hasContainer {
		scrollLeft = container.ScrollLeft()
		overflowX = container.InlineStyle("overflow-x")
		e.applyStyle(container, "overflow-x", "visible")
		if err := container.SetScrollLeft(0); err != nil {
			e.log.Warn("reset scroll failed", "error", err)
		}
	}

	width := table.InlineStyle("width")
	maxWidth := table.InlineStyle("max-width")
	e.applyStyle(table, "width", "max-content")
	e.applyStyle(table, "max-width", "none")

	// Force a layout pass so clipped columns exist before cells are read.
	_, _ = table.Box()

	return func() {
		e.applyStyle(table, "width", width)
		e.applyStyle(table, "max-width", maxWidth)
		if hasContainer {
			e.applyStyle(container, "overflow-x", overflowX)
			if err := container.SetScrollLeft(scrollLeft); err != nil {
				e.log.Warn("restore scroll failed", "error", err)
			}
		}
	}
}

func (e *Extractor) applyStyle(el dom.Element, property, value string) {
	if err := el.SetInlineStyle(property, value); err != nil {
		e.log.Warn("style rewrite failed", "property", property, "error", err)
	}
}

// scrollContainer finds the nearest ancestor that clips the table
// horizontally, falling back to the immediate parent when no ancestor
// looks scrollable.
func (e *Extractor) scrollContainer(table dom.Element) (dom.Element, bool) {
	el, ok := table.Parent()
	for depth := 0; ok && depth < maxAncestorDepth; depth++ {
		if isScrollContainer(el) {
			return el, true
		}
		el, ok = el.Parent()
	}
	return table.Parent()
}

func isScrollContainer(el dom.Element) bool {
	switch el.ComputedStyle("overflow-x") {
	case "auto", "scroll":
		return true
	}
	class, ok := el.Attribute("class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(class) {
		for _, marker := range scrollClassMarkers {
			if c == marker {
				return true
			}
		}
	}
	return false
}
