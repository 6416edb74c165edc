package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/star/exoview/internal/dataset"
	"github.com/star/exoview/internal/telescope"
)

var rowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "Fetch one telescope dataset and print its rows",
	RunE:  runRows,
}

func init() {
	rowsCmd.Flags().String("telescope", telescope.Default.String(), "telescope to fetch (TESS, K2, KEPLER)")
	rootCmd.AddCommand(rowsCmd)
}

func runRows(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	fetcher, _, err := newFetcher(cfg, logger)
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("telescope")
	loader := dataset.NewLoader(fetcher, cfg.FetchTimeout, logger)
	if err := loader.Select(name); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, ok := <-loader.Submit(ctx)
	if !ok {
		return fmt.Errorf("no fetch issued for %s", name)
	}
	if res.Err != nil {
		return res.Err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POSITION\tNAME\tWEIGHT\tSYMBOL")
	for _, row := range res.Rows {
		fmt.Fprintf(tw, "%g\t%s\t%g\t%s\n", row.Position, row.Name, row.Weight, row.Symbol)
	}
	return tw.Flush()
}
