package rodom

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"insight-exporter/internal/domain/dom"
)

var _ dom.Element = (*Element)(nil)

const elementScreenshotMaxWidth = 1400

// Element wraps one remote node. The ID is the CDP backend node ID, which
// survives re-queries of the same physical node, so two lookups of one
// table compare equal during deduplication.
type Element struct {
	el  *rod.Element
	doc *Document
	id  string
}

func newElement(el *rod.Element, doc *Document) *Element {
	return &Element{el: el, doc: doc}
}

func (e *Element) ID() string {
	if e.id != "" {
		return e.id
	}
	node, err := e.el.Describe(0, false)
	if err != nil {
		e.id = string(e.el.Object.ObjectID)
		return e.id
	}
	e.id = strconv.FormatInt(int64(node.BackendNodeID), 10)
	return e.id
}

func (e *Element) TagName() string {
	res, err := e.el.Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func (e *Element) Text() string {
	text, err := e.el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (e *Element) HTML() string {
	html, err := e.el.HTML()
	if err != nil {
		return ""
	}
	return html
}

func (e *Element) Attribute(name string) (string, bool) {
	val, err := e.el.Attribute(name)
	if err != nil || val == nil {
		return "", false
	}
	return *val, true
}

func (e *Element) Query(selector string) (dom.Element, bool) {
	has, el, err := e.el.Has(selector)
	if err != nil || !has {
		return nil, false
	}
	return newElement(el, e.doc), true
}

func (e *Element) QueryAll(selector string) []dom.Element {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil
	}
	result := make([]dom.Element, 0, len(els))
	for _, el := range els {
		result = append(result, newElement(el, e.doc))
	}
	return result
}

func (e *Element) Parent() (dom.Element, bool) {
	parent, err := e.el.Parent()
	if err != nil {
		return nil, false
	}
	return newElement(parent, e.doc), true
}

func (e *Element) Previous() (dom.Element, bool) {
	prev, err := e.el.Previous()
	if err != nil {
		return nil, false
	}
	return newElement(prev, e.doc), true
}

func (e *Element) Next() (dom.Element, bool) {
	next, err := e.el.Next()
	if err != nil {
		return nil, false
	}
	return newElement(next, e.doc), true
}

func (e *Element) ComputedStyle(property string) string {
	res, err := e.el.Eval(`(prop) => getComputedStyle(this).getPropertyValue(prop)`, property)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func (e *Element) InlineStyle(property string) string {
	res, err := e.el.Eval(`(prop) => this.style.getPropertyValue(prop)`, property)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func (e *Element) SetInlineStyle(property, value string) error {
	_, err := e.el.Eval(`(prop, val) => { this.style.setProperty(prop, val) }`, property, value)
	if err != nil {
		return fmt.Errorf("failed to set style %s: %w", property, err)
	}
	return nil
}

func (e *Element) Box() (dom.Box, bool) {
	shape, err := e.el.Shape()
	if err != nil {
		return dom.Box{}, false
	}
	box := shape.Box()
	if box == nil || (box.Width == 0 && box.Height == 0) {
		return dom.Box{}, false
	}
	return dom.Box{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}, true
}

func (e *Element) ScrollLeft() float64 {
	res, err := e.el.Eval(`() => this.scrollLeft`)
	if err != nil {
		return 0
	}
	return res.Value.Num()
}

func (e *Element) SetScrollLeft(px float64) error {
	_, err := e.el.Eval(`(px) => { this.scrollLeft = px }`, px)
	if err != nil {
		return fmt.Errorf("failed to set scrollLeft: %w", err)
	}
	return nil
}

func (e *Element) ScrollIntoView() error {
	return e.el.ScrollIntoView()
}

func (e *Element) Focus() error {
	return e.el.Focus()
}

func (e *Element) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *Element) Screenshot() ([]byte, error) {
	imgBytes, err := e.el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}
	if img.Bounds().Dx() <= elementScreenshotMaxWidth {
		return imgBytes, nil
	}

	img = imaging.Resize(img, elementScreenshotMaxWidth, 0, imaging.Lanczos)
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("png encode failed: %w", err)
	}
	return buf.Bytes(), nil
}
