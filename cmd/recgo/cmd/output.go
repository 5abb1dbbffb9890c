package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"

	"github.com/hupe1980/recgo/codec"
	"github.com/hupe1980/recgo/record"
)

// resultOutput is the JSON output format for query and sample results.
type resultOutput struct {
	Data       []record.Document `json:"data"`
	TotalCount int               `json:"total_count"`
	HasMore    bool              `json:"has_more"`
	Page       int               `json:"page,omitempty"`
	PageSize   int               `json:"page_size,omitempty"`
	TotalPages int               `json:"total_pages,omitempty"`
}

// isTTY checks if output is a terminal.
func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// useTable resolves the output format for w.
func useTable(format string, w io.Writer) bool {
	switch strings.ToLower(format) {
	case "table":
		return true
	case "json":
		return false
	default:
		return isTTY(w)
	}
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	data, err := codec.Stable.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// columns returns the primary key followed by every other field present in
// docs, sorted. A non-empty selection is used as is.
func columns(docs []record.Document, pk string, selection []string) []string {
	if len(selection) > 0 {
		return selection
	}

	seen := map[string]bool{pk: true}
	var rest []string
	for _, doc := range docs {
		for field := range doc {
			if !seen[field] {
				seen[field] = true
				rest = append(rest, field)
			}
		}
	}
	slices.Sort(rest)
	return append([]string{pk}, rest...)
}

func writeTable(w io.Writer, docs []record.Document, cols []string, footer string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(cols, "\t"))
	cells := make([]string, len(cols))
	for _, doc := range docs {
		for i, col := range cols {
			cells[i] = doc.Get(col).Text()
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if footer != "" {
		_, err := fmt.Fprintln(w, footer)
		return err
	}
	return nil
}
