package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"datapack/internal/catalog"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the package catalog",
	Long:  `Search indexed packages by dataset id, title, or source. An empty query lists everything.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	store, err := catalog.Open(cmd.Context(), cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	query := ""
	if len(args) == 1 {
		query = args[0]
	}
	recs, err := store.Search(cmd.Context(), query)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, "no packages found")
		return nil
	}
	for _, rec := range recs {
		fmt.Fprintf(out, "%s@%s  %q (%s)  %d node(s)  %s\n",
			rec.DatasetID, rec.Version, rec.Title, rec.Source, rec.Nodes, rec.Path)
	}
	return nil
}
