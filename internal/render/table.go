package render

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableBuilder collects one titled table and renders it in the chosen
// Format.
type tableBuilder struct {
	writer table.Writer
	format Format
}

func newTable(f Format, title string) *tableBuilder {
	w := table.NewWriter()
	if f == Table {
		w.SetStyle(table.StyleLight)
	}
	w.SetTitle(title)
	return &tableBuilder{writer: w, format: f}
}

func (b *tableBuilder) header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	b.writer.AppendHeader(row)
}

func (b *tableBuilder) row(vals ...any) {
	b.writer.AppendRow(table.Row(vals))
}

// columns caps the width of the 1-based column n and right-aligns the
// columns listed in right.
func (b *tableBuilder) columns(n, maxWidth int, right ...int) {
	cfgs := []table.ColumnConfig{{Number: n, WidthMax: maxWidth}}
	for _, r := range right {
		cfgs = append(cfgs, table.ColumnConfig{Number: r, Align: text.AlignRight})
	}
	b.writer.SetColumnConfigs(cfgs)
}

func (b *tableBuilder) String() string {
	if b.format == Markdown {
		return b.writer.RenderMarkdown()
	}
	return b.writer.Render()
}
