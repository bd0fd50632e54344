package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableColumn is one column of a listing. Numeric columns such as sizes and
// counts are right aligned; headers always stay left aligned.
type tableColumn struct {
	Header  string
	Numeric bool
}

func textColumns(headers ...string) []tableColumn {
	columns := make([]tableColumn, len(headers))
	for i, h := range headers {
		columns[i] = tableColumn{Header: h}
	}
	return columns
}

// renderTable draws rows under columns. Short rows are padded with empty
// cells. A non-empty caption is printed below the table.
func renderTable(columns []tableColumn, rows [][]string, caption string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.Header
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if col.Numeric {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	if caption != "" {
		tw.SetCaption("%s", caption)
	}
	return tw.Render()
}

// renderFileList renders release file names as a one-column table.
func renderFileList(names []string) string {
	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{name}
	}
	return renderTable(textColumns("File"), rows, "")
}
