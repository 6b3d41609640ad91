// Package main provides the datapack CLI: build and extend provenance-
// tracked data packages, inspect them, and publish them to shared storage.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"datapack/internal/config"
)

// Version is the current datapack CLI version, stamped into every stage
// node this producer creates.
var Version = "0.1.0"

const producerName = "datapack"

var rootCmd = &cobra.Command{
	Use:     "datapack",
	Short:   "Datapack - provenance-tracked data packages",
	Long:    `Datapack builds directories of tabular resources described by a metadata document that records dataset identity and a provenance DAG of processing stages.`,
	Version: Version,

	SilenceUsage:  true,
	SilenceErrors: true,
}

// resolveConfig is swapped out by tests.
var resolveConfig = config.Resolve

func main() {
	rootCmd.AddCommand(buildCmd, updateCmd, infoCmd, dagCmd, searchCmd, publishCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
