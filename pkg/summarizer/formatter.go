package summarizer

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Formatter renders a Summary as text.
type Formatter interface {
	Format(summary *Summary) string
}

// FormatFunc adapts a function to Formatter.
type FormatFunc func(summary *Summary) string

// Format implements Formatter.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// JSONFormatter renders a Summary as indented JSON for tooling that
// compares runs.
type JSONFormatter struct{}

// Format implements Formatter.
func (JSONFormatter) Format(summary *Summary) string {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Sprintf("{%q: %q}\n", "error", err.Error())
	}
	return string(data) + "\n"
}

// FormatterFor picks the formatter matching the extension of path: JSON
// for .json, Markdown otherwise. opts only apply to Markdown.
func FormatterFor(path string, opts ...MarkdownOption) Formatter {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSONFormatter{}
	}
	return NewMarkdownFormatter(opts...)
}
