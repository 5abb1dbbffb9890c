package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// StatsOutput is the JSON output format for store statistics.
type StatsOutput struct {
	RecordCount            int      `json:"record_count"`
	IndexCount             int      `json:"index_count"`
	IndexedFields          []string `json:"indexed_fields"`
	CacheSize              int      `json:"cache_size"`
	CacheCapacity          int      `json:"cache_capacity"`
	Tombstones             int      `json:"tombstones"`
	ApproximateMemoryBytes uint64   `json:"approximate_memory_bytes"`
}

func newStatsCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show dataset and index statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := g.openStore(cmd.Context())
			if err != nil {
				return err
			}

			s := store.Stats()
			out := StatsOutput{
				RecordCount:            s.RecordCount,
				IndexCount:             s.IndexCount,
				IndexedFields:          store.IndexedFields(),
				CacheSize:              s.CacheSize,
				CacheCapacity:          s.Cache.Capacity,
				Tombstones:             s.Tombstones,
				ApproximateMemoryBytes: s.ApproximateMemoryBytes,
			}

			w := cmd.OutOrStdout()
			if !useTable(g.cfg.Output.Format, w) {
				return writeJSON(w, out)
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "records\t%d\n", out.RecordCount)
			fmt.Fprintf(tw, "indexes\t%d %v\n", out.IndexCount, out.IndexedFields)
			fmt.Fprintf(tw, "cache\t%d/%d\n", out.CacheSize, out.CacheCapacity)
			fmt.Fprintf(tw, "tombstones\t%d\n", out.Tombstones)
			fmt.Fprintf(tw, "memory\t~%d bytes\n", out.ApproximateMemoryBytes)
			return tw.Flush()
		},
	}
}
