package summarizer

import (
	"fmt"
	"strings"
)

// Translator maps an English label to the output language.
type Translator func(key string) string

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator translates headings and labels.
func WithTranslator(t Translator) MarkdownOption {
	return func(f *MarkdownFormatter) { f.t = t }
}

// WithVersion adds the program version to the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) { f.version = version }
}

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct {
	t       Translator
	version string
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{t: func(key string) string { return key }}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder
	t := f.t

	fmt.Fprintf(&b, "# %s\n\n", t("Feed Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", t("Generated"), s.GeneratedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Setting"), t("Value"))
	if s.Settings.Preset != "" {
		fmt.Fprintf(&b, "| %s | %s |\n", t("Preset"), s.Settings.Preset)
	}
	fmt.Fprintf(&b, "| %s | %d |\n", t("Download Queue Depth"), s.Settings.DownloadQueueDepth)
	fmt.Fprintf(&b, "| %s | %d |\n", t("Preload Depth"), s.Settings.PreloadDepth)
	if s.Settings.DisplayIntervalMs > 0 {
		fmt.Fprintf(&b, "| %s | %d ms |\n", t("Display Interval"), s.Settings.DisplayIntervalMs)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "## %s\n\n", t("Providers"))
	if len(s.Providers) == 0 {
		fmt.Fprintf(&b, "%s\n\n", t("No providers registered."))
	} else {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n|---|---|---|---|\n",
			t("Provider"), t("Status"), t("Requests"), t("Group"))
		for _, p := range s.Providers {
			status := t("Online")
			if p.Offline {
				status = t("Offline")
			}
			fmt.Fprintf(&b, "| %s | %s | %d | %s |\n", p.Name, status, p.Requests, strings.Join(p.Members, ", "))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## %s\n\n", t("Queue"))
	fmt.Fprintf(&b, "- %s: %d\n", t("Downloads In Flight"), s.Queue.InFlight)
	fmt.Fprintf(&b, "- %s: %d\n", t("Reserved"), s.Queue.Reserved)
	fmt.Fprintf(&b, "- %s: %d\n", t("Tracked Items"), s.Queue.Tracked)
	fmt.Fprintf(&b, "- %s: %s\n", t("RAM"), formatBytes(s.Usage.RAMBytes))
	fmt.Fprintf(&b, "- %s: %s\n\n", t("VRAM"), formatBytes(s.Usage.VRAMBytes))

	if len(s.Items) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t("Items"))
		fmt.Fprintf(&b, "| # | %s | %s | %s | %s | %s |\n|---|---|---|---|---|---|\n",
			t("Creator"), t("Size"), t("Frames"), t("Wait"), t("Source"))
		for i, it := range s.Items {
			size := "-"
			if it.Width > 0 {
				size = fmt.Sprintf("%dx%d %s", it.Width, it.Height, it.Format)
			}
			frames := fmt.Sprintf("%d", it.Frames)
			if it.Frames > 1 {
				frames = fmt.Sprintf("%d (%d ms)", it.Frames, it.CycleMs)
			}
			src := it.SourceURL
			if it.Error != "" {
				src = fmt.Sprintf("%s: %s", t("Error"), it.Error)
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %d ms | %s |\n",
				i+1, it.Creator, size, frames, it.WaitMs, src)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n")
	if f.version != "" {
		fmt.Fprintf(&b, "pawfeed %s\n", f.version)
	} else {
		b.WriteString("pawfeed\n")
	}
	return b.String()
}

// formatBytes renders n with a binary unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
