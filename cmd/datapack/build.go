package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"datapack/internal/catalog"
	"datapack/internal/packager"
	"datapack/internal/tabular"
	"datapack/pkg/domain"
	"datapack/pkg/profile"
)

var buildFlags = struct {
	dir       string
	resources []string
	annots    []string
	views     []string
	metadata  string
	profile   string
	format    string
	from      string
}{}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a new data package",
	Long: `Build a new data package: write the named resources into the target
directory and create a datapackage.json with a fresh provenance graph.

Annotations, views, and metadata accept @path to read a file, or a literal
value. Examples:

  datapack build --dir ./pkg --resource data=counts.csv \
      --annot "initial import" --annot @notes/overview.md \
      --view @views/scatter.json \
      --metadata @metadata.yml --profile biodat`,
	RunE: runBuild,
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Append a processing stage to an existing package",
	Long: `Append a processing stage to an existing package: the new node is linked
from the package's current frontier, resources are rewritten, and dataset
identity is carried over unchanged.`,
	RunE: runUpdate,
}

func init() {
	for _, cmd := range []*cobra.Command{buildCmd, updateCmd} {
		cmd.Flags().StringVar(&buildFlags.dir, "dir", ".", "target package directory")
		cmd.Flags().StringArrayVar(&buildFlags.resources, "resource", nil, "resource to include, as name=path (repeatable)")
		cmd.Flags().StringArrayVar(&buildFlags.annots, "annot", nil, "annotation literal or @path (repeatable)")
		cmd.Flags().StringArrayVar(&buildFlags.views, "view", nil, "view spec inline or @path (repeatable)")
		cmd.Flags().StringVar(&buildFlags.metadata, "metadata", "", "stage metadata, inline YAML/JSON or @path")
		cmd.Flags().StringVar(&buildFlags.profile, "profile", "", "metadata profile to validate against")
		cmd.Flags().StringVar(&buildFlags.format, "format", "csv", "resource format: csv or tsv")
	}
	updateCmd.Flags().StringVar(&buildFlags.from, "from", "", "existing package to extend (defaults to --dir)")
}

func newRequest() (packager.Request, error) {
	resources, err := parseResourceArgs(buildFlags.resources)
	if err != nil {
		return packager.Request{}, err
	}
	views, err := parseViewArgs(buildFlags.views)
	if err != nil {
		return packager.Request{}, err
	}
	metadata, err := parseMetadataArg(buildFlags.metadata)
	if err != nil {
		return packager.Request{}, err
	}
	return packager.Request{
		Resources:   resources,
		Format:      tabular.Format(buildFlags.format),
		Annotations: parseAnnotationArgs(buildFlags.annots),
		Views:       views,
		Metadata:    metadata,
		Profile:     buildFlags.profile,
	}, nil
}

func runBuild(cmd *cobra.Command, _ []string) error {
	return runPackaging(cmd, "")
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	from := buildFlags.from
	if from == "" {
		from = buildFlags.dir
	}
	return runPackaging(cmd, from)
}

func runPackaging(cmd *cobra.Command, from string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	req, err := newRequest()
	if err != nil {
		return err
	}
	if req.Profile == "" {
		req.Profile = cfg.DefaultProfile
	}
	builder := packager.New(producerName, Version, profile.DefaultRegistry(cfg.ProfileDir))

	var doc *domain.DataPackageDocument
	if from == "" {
		doc, err = builder.Build(cmd.Context(), buildFlags.dir, req)
	} else {
		doc, err = builder.Update(cmd.Context(), from, buildFlags.dir, req)
	}
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(os.Stderr, verr.Error())
		}
		return err
	}

	if dir, err := filepath.Abs(buildFlags.dir); err == nil {
		recordInCatalog(cmd, cfg.CatalogPath, doc, dir)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d node(s), %d resource(s))\n",
		filepath.Join(buildFlags.dir, "datapackage.json"), doc.Provenance.NodeCount(), len(doc.Resources))
	return nil
}

// recordInCatalog indexes the built package for search. Catalog trouble is
// reported but never fails a build whose package is already on disk.
func recordInCatalog(cmd *cobra.Command, catalogPath string, doc *domain.DataPackageDocument, dir string) {
	store, err := catalog.Open(cmd.Context(), catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: catalog unavailable: %v\n", err)
		return
	}
	defer func() { _ = store.Close() }()
	if err := store.Put(cmd.Context(), catalog.FromDocument(doc, dir)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: catalog update failed: %v\n", err)
	}
}
