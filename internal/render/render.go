package render

import "strings"

// Markdown renders markdown content for terminal display.
// Output is cached per content and options.
func Markdown(content string, opts Options) (string, error) {
	key := outputKey(content, opts)
	if out, ok := outputCache.Get(key); ok {
		return out.(string), nil
	}

	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	out, err := renderer.Render(content)
	if err != nil {
		return "", err
	}

	outputCache.SetDefault(key, out)
	return out, nil
}

// MarkdownWithWidth renders with default options at the given width.
func MarkdownWithWidth(content string, width int) (string, error) {
	return Markdown(content, DefaultOptions().WithWidth(width))
}

// MarkdownOrPlain renders content and falls back to the raw text when the
// renderer fails. Surrounding blank lines are trimmed.
func MarkdownOrPlain(content string, opts Options) string {
	out, err := Markdown(content, opts)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
