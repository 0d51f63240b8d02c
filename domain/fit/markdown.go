package fit

import (
	"fmt"
	"strings"
)

// Markdown renders the result as a Markdown section: an optional heading,
// the formula, the coefficient table and R².
func Markdown(r *Result, title string, digits int) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "## %s\n\n", title)
	}
	if r.Formula != "" {
		fmt.Fprintf(&b, "`%s` (%s, n = %d)\n\n", r.Formula, r.Family, r.Observations)
	}

	names := r.Names()
	values := r.Values(digits)

	b.WriteString("| Coefficient |")
	for _, name := range names {
		fmt.Fprintf(&b, " %s |", escapeCell(name))
	}
	b.WriteString("\n|---|")
	for range names {
		b.WriteString("---:|")
	}
	b.WriteByte('\n')

	for row, label := range coefficientRows {
		fmt.Fprintf(&b, "| %s |", escapeCell(strings.TrimSpace(label)))
		for col := range names {
			fmt.Fprintf(&b, " %s |", values[row*len(names)+col])
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "\nR squared: **%s**\n", FormatValue(r.RSquared, digits))
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
