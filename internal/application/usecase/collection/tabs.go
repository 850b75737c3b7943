package collection

import (
	"strings"

	"insight-exporter/internal/domain/dom"
)

// TabStrategy recognizes one flavor of tab widget: how to find its
// triggers, tell which one is selected, and resolve the panel a trigger
// reveals.
type TabStrategy interface {
	Name() string
	Triggers(scope dom.Element) []dom.Element
	IsActive(trigger dom.Element) bool
	// Panel resolves the content a trigger controls. Resolution happens
	// against the document root because panels are often mounted far
	// from their trigger.
	Panel(root, trigger dom.Element) (dom.Element, bool)
}

func DefaultStrategies() []TabStrategy {
	return []TabStrategy{&AriaTabStrategy{}, &ClassTabStrategy{}}
}

// AriaTabStrategy handles WAI-ARIA tab widgets: role="tab" triggers with
// aria-selected or data-state markers and aria-controls panel links.
type AriaTabStrategy struct{}

var _ TabStrategy = (*AriaTabStrategy)(nil)

func (s *AriaTabStrategy) Name() string { return "aria" }

func (s *AriaTabStrategy) Triggers(scope dom.Element) []dom.Element {
	return scope.QueryAll(`[role="tab"]`)
}

func (s *AriaTabStrategy) IsActive(trigger dom.Element) bool {
	if v, ok := trigger.Attribute("aria-selected"); ok && v == "true" {
		return true
	}
	if v, ok := trigger.Attribute("data-state"); ok && v == "active" {
		return true
	}
	return false
}

func (s *AriaTabStrategy) Panel(root, trigger dom.Element) (dom.Element, bool) {
	id, ok := trigger.Attribute("aria-controls")
	if !ok || id == "" {
		return nil, false
	}
	return root.Query(`[id="` + id + `"]`)
}

// ClassTabStrategy handles class-convention widgets: .tabs-trigger
// buttons inside a bar, panels matched to the trigger's position among
// the bar's following .tabs-content or .tabs-panel siblings.
type ClassTabStrategy struct{}

var _ TabStrategy = (*ClassTabStrategy)(nil)

func (s *ClassTabStrategy) Name() string { return "class" }

func (s *ClassTabStrategy) Triggers(scope dom.Element) []dom.Element {
	return scope.QueryAll(".tabs-trigger")
}

func (s *ClassTabStrategy) IsActive(trigger dom.Element) bool {
	return hasClassWord(trigger, "active")
}

func (s *ClassTabStrategy) Panel(root, trigger dom.Element) (dom.Element, bool) {
	bar, ok := trigger.Parent()
	if !ok {
		return nil, false
	}

	index := -1
	for i, sibling := range bar.QueryAll(".tabs-trigger") {
		if sibling.ID() == trigger.ID() {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, false
	}

	count := 0
	for sibling, ok := bar.Next(); ok; sibling, ok = sibling.Next() {
		if !isPanelNode(sibling) {
			continue
		}
		if count == index {
			return sibling, true
		}
		count++
	}
	return nil, false
}

// isPanelNode reports whether an element is a tab panel container under
// either convention.
func isPanelNode(el dom.Element) bool {
	if role, ok := el.Attribute("role"); ok && role == "tabpanel" {
		return true
	}
	return hasClassWord(el, "tabs-content") || hasClassWord(el, "tabs-panel")
}

// nestedInPanel reports whether a trigger sits inside a tab panel below
// scope. Such triggers belong to a nested widget and are reached by
// recursing into their panel, not by the walk over scope.
func nestedInPanel(trigger, scope dom.Element) bool {
	scopeID := scope.ID()
	for p, ok := trigger.Parent(); ok && p.ID() != scopeID; p, ok = p.Parent() {
		if isPanelNode(p) {
			return true
		}
	}
	return false
}

func hasClassWord(el dom.Element, class string) bool {
	v, ok := el.Attribute("class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}
