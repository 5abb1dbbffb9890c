package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/recgo/query"
	"github.com/hupe1980/recgo/record"
	"github.com/hupe1980/recgo/value"
)

type queryOptions struct {
	filters      []string
	search       string
	searchFields []string
	sorts        []string
	seed         uint64
	limit        int
	offset       int
	page         int
	pageSize     int
	fields       []string
}

func newQueryCmd(g *globalOptions) *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Filter, search, sort and page through the dataset",
		Long: `Run a query against the dataset.

Filters are exact-match field=value pairs combined with AND. Values are
parsed as numbers, true/false or null where possible; quote them to force
a string (--filter 'code="007"').

Search keeps records where every word of the term occurs, case-insensitively,
in at least one of the search fields.

Examples:
  recgo query --data words.jsonl --filter category=animals --sort word
  recgo query --data words.jsonl --search "ca" --search-fields word,note
  recgo query --data words.jsonl --sort difficulty:desc --page 2 --page-size 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("search-fields") {
				opts.searchFields = g.cfg.Dataset.SearchFields
			}
			if !cmd.Flags().Changed("page-size") {
				opts.pageSize = g.cfg.Output.PageSize
			}
			spec, err := buildSpec(opts, cmd.Flags().Changed("seed"))
			if err != nil {
				return err
			}
			return runQuery(cmd.Context(), cmd, g, spec, opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.filters, "filter", nil, "Equality filter field=value (repeatable)")
	f.StringVar(&opts.search, "search", "", "Search term")
	f.StringSliceVar(&opts.searchFields, "search-fields", nil, "Fields to search (default: dataset.search_fields)")
	f.StringArrayVar(&opts.sorts, "sort", nil, "Sort key field[:asc|desc] (repeatable)")
	f.Uint64Var(&opts.seed, "seed", 0, "Shuffle results with this seed instead of sorting")
	f.IntVar(&opts.limit, "limit", 0, "Maximum number of results (0 = no limit)")
	f.IntVar(&opts.offset, "offset", 0, "Number of results to skip")
	f.IntVar(&opts.page, "page", 0, "Page number; enables pagination")
	f.IntVar(&opts.pageSize, "page-size", 0, "Page size (default: output.page_size)")
	f.StringSliceVar(&opts.fields, "fields", nil, "Table columns (default: all fields)")

	return cmd
}

// buildSpec turns query flags into a query.Spec.
func buildSpec(opts queryOptions, shuffle bool) (query.Spec, error) {
	var spec query.Spec

	for _, f := range opts.filters {
		field, raw, err := parseFilter(f)
		if err != nil {
			return query.Spec{}, err
		}
		spec = spec.And(field, value.Parse(raw))
	}

	if opts.search != "" {
		if len(opts.searchFields) == 0 {
			return query.Spec{}, fmt.Errorf("--search needs --search-fields or dataset.search_fields")
		}
		spec = spec.Matching(opts.search, opts.searchFields...)
	}

	for _, s := range opts.sorts {
		field, dir, _ := strings.Cut(s, ":")
		if field == "" {
			return query.Spec{}, fmt.Errorf("invalid sort %q: want field[:asc|desc]", s)
		}
		d, err := query.ParseDirection(dir)
		if err != nil {
			return query.Spec{}, err
		}
		spec = spec.SortBy(field, d)
	}

	if shuffle {
		spec = spec.Shuffled(opts.seed)
	}

	if opts.limit < 0 || opts.offset < 0 {
		return query.Spec{}, fmt.Errorf("--limit and --offset must be non-negative")
	}
	return spec.Window(opts.offset, opts.limit), nil
}

func parseFilter(s string) (field, raw string, err error) {
	field, raw, ok := strings.Cut(s, "=")
	if !ok || field == "" {
		return "", "", fmt.Errorf("invalid filter %q: want field=value", s)
	}
	return field, raw, nil
}

func runQuery(ctx context.Context, cmd *cobra.Command, g *globalOptions, spec query.Spec, opts queryOptions) error {
	store, err := g.openStore(ctx)
	if err != nil {
		return err
	}

	var out resultOutput
	var footer string

	if opts.page > 0 {
		p, err := store.Paginate(spec, opts.pageSize).GoToPage(opts.page).CurrentPage(ctx)
		if err != nil {
			return err
		}
		out = resultOutput{
			Data:       p.Data,
			TotalCount: p.TotalCount,
			HasMore:    p.HasMore,
			Page:       p.Page,
			PageSize:   p.PageSize,
			TotalPages: p.TotalPages,
		}
		footer = fmt.Sprintf("page %d of %d, %d records", p.Page, p.TotalPages, p.TotalCount)
	} else {
		res, err := store.Query(ctx, spec)
		if err != nil {
			return err
		}
		out = resultOutput{
			Data:       res.Data,
			TotalCount: res.TotalCount,
			HasMore:    res.HasMore,
		}
		footer = fmt.Sprintf("%d of %d records", len(res.Data), res.TotalCount)
	}

	return writeResult(cmd, g, out, opts.fields, footer)
}

func writeResult(cmd *cobra.Command, g *globalOptions, out resultOutput, fields []string, footer string) error {
	w := cmd.OutOrStdout()
	if out.Data == nil {
		out.Data = []record.Document{}
	}
	if useTable(g.cfg.Output.Format, w) {
		return writeTable(w, out.Data, columns(out.Data, g.cfg.Dataset.PrimaryKey, fields), footer)
	}
	return writeJSON(w, out)
}
