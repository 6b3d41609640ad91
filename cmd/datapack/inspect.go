package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"datapack/internal/pkgfile"
)

var infoCmd = &cobra.Command{
	Use:   "info [path]",
	Short: "Show info for a data package",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInfo,
}

var dagCmd = &cobra.Command{
	Use:   "dag [path]",
	Short: "Show the provenance chain of a data package",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDag,
}

func packageArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

func runInfo(cmd *cobra.Command, args []string) error {
	doc, err := pkgfile.Load(packageArg(args))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, doc.Info.Dataset.Title)
	fmt.Fprintf(out, "%s (%s)\n", doc.Info.Dataset.ID, doc.Info.Source.Title)
	if doc.Info.Version != "" {
		fmt.Fprintf(out, "version: %s\n", doc.Info.Version)
	}
	if doc.Info.ProfileName != "" {
		fmt.Fprintf(out, "profile: %s\n", doc.Info.ProfileName)
	}
	fmt.Fprintln(out, "Provenance DAG:")
	fmt.Fprintf(out, "- nodes: %d\n", doc.Provenance.NodeCount())
	fmt.Fprintf(out, "- edges: %d\n", doc.Provenance.EdgeCount())
	fmt.Fprintln(out, "Resources:")
	for _, r := range doc.Resources {
		fmt.Fprintf(out, "- %s (%s, %d x %d)\n", r.Name, r.Format, r.Rows, r.Columns)
	}
	return nil
}

func runDag(cmd *cobra.Command, args []string) error {
	doc, err := pkgfile.Load(packageArg(args))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, id := range doc.Provenance.Chain() {
		node, err := doc.Provenance.ResolveFocus(id)
		if err != nil {
			return err
		}
		marker := " "
		if id == doc.Provenance.CurrentID() {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %d. %s  %s/%s %s  %s\n",
			marker, i+1, node.ID, node.Producer, node.Version, node.Action,
			node.Time.Format("2006-01-02 15:04:05"))
		for _, annot := range node.Annotations {
			fmt.Fprintf(out, "     annot: %s\n", firstLine(annot))
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
