package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/recgo/value"
)

func newSampleCmd(g *globalOptions) *cobra.Command {
	var (
		n       int
		seed    uint64
		filters []string
		fields  []string
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Draw random records without replacement",
		Long: `Draw up to n distinct records, optionally restricted by filters.
The same seed over the same dataset always draws the same records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := make(map[string]value.Value, len(filters))
			for _, f := range filters {
				field, raw, err := parseFilter(f)
				if err != nil {
					return err
				}
				filter[field] = value.Parse(raw)
			}

			ctx := cmd.Context()
			store, err := g.openStore(ctx)
			if err != nil {
				return err
			}

			docs, err := store.Sample(ctx, n, filter, seed)
			if err != nil {
				return err
			}

			out := resultOutput{Data: docs, TotalCount: len(docs)}
			return writeResult(cmd, g, out, fields, fmt.Sprintf("%d records", len(docs)))
		},
	}

	f := cmd.Flags()
	f.IntVarP(&n, "count", "n", 5, "Number of records to draw")
	f.Uint64Var(&seed, "seed", 1, "Random seed")
	f.StringArrayVar(&filters, "filter", nil, "Equality filter field=value (repeatable)")
	f.StringSliceVar(&fields, "fields", nil, "Table columns (default: all fields)")

	return cmd
}
