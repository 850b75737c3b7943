package htmlsnap

import (
	"strconv"

	"golang.org/x/net/html"
)

// Click emulates the one interaction collection needs from a snapshot:
// selecting a tab trigger. ARIA tablists and class-based tab bars are
// rewritten the way the live widget would rewrite itself. Clicking
// anything else is a no-op.
func (e *Element) Click() error {
	if role, _ := attrOf(e.node, "role"); role == "tab" {
		e.activateAriaTab()
		return nil
	}
	if hasClass(e.node, "tabs-trigger") {
		e.activateClassTab()
		return nil
	}
	return nil
}

// activateAriaTab deselects every sibling tab first and selects the
// clicked one last, so a panel shared by two triggers ends up visible.
func (e *Element) activateAriaTab() {
	list := closestRole(e.node, "tablist")
	if list == nil {
		list = e.node.Parent
	}
	if list == nil {
		return
	}

	for _, tab := range nodesWithRole(list, "tab") {
		if tab != e.node {
			e.setAriaTabState(tab, false)
		}
	}
	e.setAriaTabState(e.node, true)
}

func (e *Element) setAriaTabState(tab *html.Node, active bool) {
	setAttr(tab, "aria-selected", strconv.FormatBool(active))
	if active {
		setAttr(tab, "data-state", "active")
		setAttr(tab, "tabindex", "0")
	} else {
		setAttr(tab, "data-state", "inactive")
		setAttr(tab, "tabindex", "-1")
	}

	panelID, ok := attrOf(tab, "aria-controls")
	if !ok || panelID == "" {
		return
	}
	panel := findByID(e.doc.root, panelID)
	if panel == nil {
		return
	}
	if active {
		removeAttr(panel, "hidden")
		setAttr(panel, "data-state", "active")
	} else {
		setAttr(panel, "hidden", "")
		setAttr(panel, "data-state", "inactive")
	}
}

// activateClassTab flips the active class among sibling triggers and
// shows the panel at the trigger's index among the bar's following
// panel containers.
func (e *Element) activateClassTab() {
	bar := e.node.Parent
	if bar == nil {
		return
	}

	index := -1
	count := 0
	for c := bar.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || !hasClass(c, "tabs-trigger") {
			continue
		}
		if c == e.node {
			index = count
		} else {
			removeClass(c, "active")
		}
		count++
	}
	addClass(e.node, "active")
	if index < 0 {
		return
	}

	panelIndex := 0
	for s := bar.NextSibling; s != nil; s = s.NextSibling {
		if s.Type != html.ElementNode {
			continue
		}
		if !hasClass(s, "tabs-content") && !hasClass(s, "tabs-panel") {
			continue
		}
		if panelIndex == index {
			removeAttr(s, "hidden")
			addClass(s, "active")
		} else {
			setAttr(s, "hidden", "")
			removeClass(s, "active")
		}
		panelIndex++
	}
}

func closestRole(n *html.Node, role string) *html.Node {
	for p := n.Parent; p != nil && p.Type == html.ElementNode; p = p.Parent {
		if r, _ := attrOf(p, "role"); r == role {
			return p
		}
	}
	return nil
}

func nodesWithRole(root *html.Node, role string) []*html.Node {
	var result []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if r, _ := attrOf(n, "role"); r == role {
				result = append(result, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return result
}

func findByID(root *html.Node, id string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			if v, ok := attrOf(n, "id"); ok && v == id {
				found = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}
