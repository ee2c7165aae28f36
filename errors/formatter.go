package errors

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
)

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Format renders err for the terminal: a single error line followed by any
// hints attached with errors.WithHint. Color is dropped when useColor is false.
func Format(err error, useColor bool) string {
	if err == nil {
		return ""
	}

	var b strings.Builder
	line := "Error: " + err.Error()
	if useColor {
		line = errorStyle.Render(line)
	}
	b.WriteString(line)

	for _, hint := range dedupe(errors.GetAllHints(err)) {
		h := "  hint: " + hint
		if useColor {
			h = hintStyle.Render(h)
		}
		b.WriteString("\n")
		b.WriteString(h)
	}
	return b.String()
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
