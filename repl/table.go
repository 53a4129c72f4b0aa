package repl

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/zephyrtronium/calc"
)

const (
	resultTitle = "Result"
	stringTitle = "String"
)

// writeTable prints history entries as a two-column table of results and the
// lines that produced them, in the order given. Both columns have the same
// width, which fits every cell and the combined length of the titles.
// Entries holding errors are skipped.
func writeTable(w io.Writer, rows []calc.HistoryEntry) {
	rows = lo.Filter(rows, func(h calc.HistoryEntry, _ int) bool { return h.Result.IsOk() })
	results := lo.Map(rows, func(h calc.HistoryEntry, _ int) string { return calc.Format(h.Result.MustGet()) })
	inputs := lo.Map(rows, func(h calc.HistoryEntry, _ int) string { return strings.TrimRight(h.Input, " \t") })
	lens := lo.Map(append(append([]string(nil), results...), inputs...), func(s string, _ int) int {
		return utf8.RuneCountInString(s)
	})
	width := lo.Max(append(lens, len(resultTitle)+len(stringTitle)))

	var b strings.Builder
	row := func(l, r string) {
		b.WriteString("| ")
		center(&b, l, width, ' ')
		b.WriteString(" | ")
		center(&b, r, width, ' ')
		b.WriteString(" |\n")
	}
	row(resultTitle, stringTitle)
	b.WriteString("|-")
	center(&b, "", width, '-')
	b.WriteString("-|-")
	center(&b, "", width, '-')
	b.WriteString("-|\n")
	for i := range rows {
		row(results[i], inputs[i])
	}
	io.WriteString(w, b.String())
}

// center writes s padded with fill to width runes. When the padding is
// uneven, the extra rune goes on the right.
func center(b *strings.Builder, s string, width int, fill rune) {
	pad := width - utf8.RuneCountInString(s)
	if pad < 0 {
		pad = 0
	}
	l := pad / 2
	for i := 0; i < l; i++ {
		b.WriteRune(fill)
	}
	b.WriteString(s)
	for i := l; i < pad; i++ {
		b.WriteRune(fill)
	}
}
