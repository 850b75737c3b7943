package htmlsnap

import (
	"strings"

	"golang.org/x/net/html"
)

// textContent renders the visible text of a subtree. Script, style and
// display:none subtrees are skipped. Block-level boundaries separate
// words while inline boundaries do not, so "<td>A</td><td>B</td>"
// yields "A B" but "<span>$</span>1,200" stays "$1,200".
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
			if displayOf(n) == "none" {
				return
			}
			if isBlockTag(n.Data) {
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlockTag(n.Data) {
			b.WriteByte(' ')
		}
	}
	walk(n)
	return collapseSpace(b.String())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "caption": true, "dd": true, "div": true, "dl": true,
	"dt": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "tbody": true,
	"td": true, "tfoot": true, "th": true, "thead": true, "tr": true,
	"ul": true,
}

func isBlockTag(tag string) bool {
	return blockTags[tag]
}

// displayOf resolves the effective display value of a node without a
// stylesheet: the hidden attribute and the inline style win, otherwise
// the tag's user-agent default applies.
func displayOf(n *html.Node) string {
	if hasAttr(n, "hidden") {
		return "none"
	}
	if v := inlineProperty(n, "display"); v != "" {
		return v
	}
	return defaultDisplay(n.Data)
}

func defaultDisplay(tag string) string {
	switch tag {
	case "a", "abbr", "b", "bdi", "bdo", "button", "cite", "code", "em",
		"i", "img", "input", "kbd", "label", "mark", "q", "s", "samp",
		"select", "small", "span", "strong", "sub", "sup", "textarea",
		"time", "u", "var":
		return "inline"
	case "table":
		return "table"
	case "thead":
		return "table-header-group"
	case "tbody":
		return "table-row-group"
	case "tfoot":
		return "table-footer-group"
	case "tr":
		return "table-row"
	case "td", "th":
		return "table-cell"
	case "caption":
		return "table-caption"
	case "li":
		return "list-item"
	default:
		return "block"
	}
}

func attrOf(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, name string) bool {
	_, ok := attrOf(n, name)
	return ok
}

func setAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

func removeAttr(n *html.Node, name string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func classList(n *html.Node) []string {
	v, _ := attrOf(n, "class")
	return strings.Fields(v)
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range classList(n) {
		if c == class {
			return true
		}
	}
	return false
}

func addClass(n *html.Node, class string) {
	if hasClass(n, class) {
		return
	}
	setAttr(n, "class", strings.Join(append(classList(n), class), " "))
}

func removeClass(n *html.Node, class string) {
	classes := classList(n)
	kept := classes[:0]
	for _, c := range classes {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		removeAttr(n, "class")
		return
	}
	setAttr(n, "class", strings.Join(kept, " "))
}

type styleDecl struct {
	property string
	value    string
}

func parseStyle(style string) []styleDecl {
	var decls []styleDecl
	for _, part := range strings.Split(style, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		property, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		decls = append(decls, styleDecl{
			property: strings.ToLower(strings.TrimSpace(property)),
			value:    strings.TrimSpace(value),
		})
	}
	return decls
}

func renderStyle(decls []styleDecl) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.property+": "+d.value)
	}
	return strings.Join(parts, "; ")
}

func inlineProperty(n *html.Node, property string) string {
	style, ok := attrOf(n, "style")
	if !ok {
		return ""
	}
	property = strings.ToLower(strings.TrimSpace(property))
	for _, d := range parseStyle(style) {
		if d.property == property {
			return d.value
		}
	}
	return ""
}

// setInlineProperty rewrites the style attribute, preserving the order
// of unrelated declarations. An empty value removes the declaration,
// and the attribute itself once no declarations remain.
func setInlineProperty(n *html.Node, property, value string) {
	property = strings.ToLower(strings.TrimSpace(property))
	style, _ := attrOf(n, "style")
	decls := parseStyle(style)

	kept := decls[:0]
	replaced := false
	for _, d := range decls {
		if d.property == property {
			if value == "" {
				continue
			}
			d.value = value
			replaced = true
		}
		kept = append(kept, d)
	}
	if !replaced && value != "" {
		kept = append(kept, styleDecl{property: property, value: value})
	}

	if len(kept) == 0 {
		removeAttr(n, "style")
		return
	}
	setAttr(n, "style", renderStyle(kept))
}
