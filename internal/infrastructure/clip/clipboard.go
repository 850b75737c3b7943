// Package clip writes export output to the system clipboard.
package clip

import (
	"github.com/atotto/clipboard"

	"insight-exporter/internal/application/port/output"
)

var _ output.ClipboardPort = (*SystemClipboard)(nil)

type SystemClipboard struct{}

func NewSystemClipboard() *SystemClipboard { return &SystemClipboard{} }

func (c *SystemClipboard) WriteText(text string) error {
	return clipboard.WriteAll(text)
}
