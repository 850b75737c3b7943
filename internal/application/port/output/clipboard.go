package output

type ClipboardPort interface {
	WriteText(text string) error
}
