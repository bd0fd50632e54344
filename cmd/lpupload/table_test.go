package main

import (
	"strings"
	"testing"
)

func TestRenderTablePadsShortRowsAndAddsCaption(t *testing.T) {
	out := renderTable([]tableColumn{
		{Header: "File"},
		{Header: "Size", Numeric: true},
	}, [][]string{{"a.deb", "1.0 KiB"}, {"b.rpm"}}, "2 file(s)")

	requireContains(t, out, "File")
	requireContains(t, out, "b.rpm")
	lines := strings.Split(out, "\n")
	if last := lines[len(lines)-1]; last != "2 file(s)" {
		t.Fatalf("caption should close the table, got %q", last)
	}
}

func TestRenderTableRightAlignsNumericColumns(t *testing.T) {
	out := renderTable([]tableColumn{
		{Header: "File"},
		{Header: "Size", Numeric: true},
	}, [][]string{{"a.deb", "1"}, {"b.rpm", "12345"}}, "")

	requireContains(t, out, "│     1 │")
	requireContains(t, out, "│ 12345 │")
}

func TestRenderTableWithoutColumns(t *testing.T) {
	if out := renderTable(nil, [][]string{{"x"}}, ""); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

func TestRenderFileList(t *testing.T) {
	out := renderFileList([]string{"a.tar.bz2", "b.deb"})
	requireContains(t, out, "File")
	requireContains(t, out, "a.tar.bz2")
	requireContains(t, out, "b.deb")
}
