package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"datapack/internal/blob"
	"datapack/internal/publish"
)

var publishCmd = &cobra.Command{
	Use:   "publish [path]",
	Short: "Publish a data package to shared storage",
	Long: `Upload a built package (resources plus metadata document) to the blob
store selected by DATAPACK_BLOB_DRIVER (fs, s3, or memory). Packages land
under <dataset id>/<version>/; an already-published version is never
overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPublish,
}

func runPublish(cmd *cobra.Command, args []string) error {
	store, err := blob.Open(cmd.Context())
	if err != nil {
		return err
	}
	res, err := publish.Publish(cmd.Context(), store, packageArg(args))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "published %d file(s) under %s (%s driver)\n",
		len(res.Keys), res.Prefix, store.Driver())
	return nil
}
