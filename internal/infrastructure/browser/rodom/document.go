package rodom

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"insight-exporter/internal/application/port/output"
	"insight-exporter/internal/domain/dom"
)

var _ dom.Document = (*Document)(nil)

const pageScreenshotMaxWidth = 1024

// Document wraps one attached page.
type Document struct {
	page    *rod.Page
	timeout time.Duration
	log     output.LoggerPort
}

func (d *Document) Root() (dom.Element, error) {
	body, err := d.page.Timeout(d.timeout).Element("body")
	if err != nil {
		return nil, fmt.Errorf("body not found: %w", err)
	}
	return newElement(body, d), nil
}

// WaitStable waits for a mutation-quiet period, giving up once the
// ceiling elapses. A reached ceiling means "render with what we have",
// never an error. One layout read is forced afterwards so lazily
// rendered content materializes before the caller scans.
func (d *Document) WaitStable(ctx context.Context, quiet, ceiling time.Duration) error {
	if ceiling < quiet {
		ceiling = quiet
	}
	page := d.page.Context(ctx).Timeout(ceiling)
	if err := page.WaitDOMStable(quiet, 0); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.log.Debug("settle wait hit ceiling", "ceiling", ceiling.String())
	}
	_, _ = d.page.Eval(`() => document.body.offsetHeight`)
	return nil
}

func (d *Document) Title() string {
	info, err := d.page.Info()
	if err != nil {
		return ""
	}
	return info.Title
}

func (d *Document) URL() string {
	info, err := d.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (d *Document) Screenshot() ([]byte, error) {
	imgBytes, err := d.page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}
	if img.Bounds().Dx() <= pageScreenshotMaxWidth {
		return imgBytes, nil
	}

	img = imaging.Resize(img, pageScreenshotMaxWidth, 0, imaging.Lanczos)
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}
	return buf.Bytes(), nil
}
