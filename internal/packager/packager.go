// Package packager builds and extends data packages: it writes tabular
// resources, derives their descriptors from disk, appends a stage node to
// the provenance graph, and atomically rewrites the package metadata
// document. Operations are all-or-nothing: validation and source resolution
// run before any destructive write begins.
package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"datapack/internal/pkgfile"
	"datapack/internal/tabular"
	"datapack/pkg/domain"
)

// ErrIOWrite indicates the target directory was unwritable or the atomic
// rename of the metadata document failed.
var ErrIOWrite = errors.New("io write error")

// Request collects the inputs for a build or update operation.
type Request struct {
	Resources   map[string]*tabular.Table
	Format      tabular.Format // defaults to CSV
	Annotations []domain.AnnotationSource
	Views       []domain.ViewSource
	Metadata    map[string]any
	Profile     string // empty disables schema validation
}

func (r Request) format() (tabular.Format, error) {
	return tabular.ParseFormat(string(r.Format))
}

// Builder orchestrates package creation and extension. The producer
// identity is stamped into every stage node it creates.
type Builder struct {
	producer  string
	version   string
	validator domain.SchemaValidator
}

// New constructs a builder. validator may be nil when no profile validation
// is ever requested.
func New(producer, version string, validator domain.SchemaValidator) *Builder {
	return &Builder{producer: producer, version: version, validator: validator}
}

// Build creates a brand-new package in dir: a fresh provenance graph with a
// single root node, resources written to dir, and a datapackage.json
// describing both. Validation failures abort before anything is written.
func (b *Builder) Build(ctx context.Context, dir string, req Request) (*domain.DataPackageDocument, error) {
	format, err := req.format()
	if err != nil {
		return nil, err
	}
	node, err := b.newNode(domain.ActionBuild, req)
	if err != nil {
		return nil, err
	}
	graph, err := domain.NewGraph(node)
	if err != nil {
		return nil, err
	}
	resources, err := b.writeResources(ctx, dir, format, req)
	if err != nil {
		return nil, err
	}
	doc := &domain.DataPackageDocument{
		Info:       domain.InfoFromMetadata(req.Metadata, req.Profile),
		Resources:  resources,
		Provenance: graph,
	}
	if err := b.writeDocument(dir, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update extends the package at existing: the new stage node is linked from
// the loaded document's frontier, resource descriptors are recomputed from
// the freshly written files, and dataset identity is carried over unchanged
// from the loaded document regardless of what the request supplies.
func (b *Builder) Update(ctx context.Context, existing, dir string, req Request) (*domain.DataPackageDocument, error) {
	format, err := req.format()
	if err != nil {
		return nil, err
	}
	loaded, err := pkgfile.Load(existing)
	if err != nil {
		return nil, err
	}
	node, err := b.newNode(domain.ActionUpdate, req)
	if err != nil {
		return nil, err
	}
	if err := loaded.Provenance.Append(node); err != nil {
		return nil, err
	}
	resources, err := b.writeResources(ctx, dir, format, req)
	if err != nil {
		return nil, err
	}
	doc := &domain.DataPackageDocument{
		Info:       loaded.Info,
		Resources:  resources,
		Provenance: loaded.Provenance,
	}
	if err := b.writeDocument(dir, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (b *Builder) newNode(action domain.Action, req Request) (domain.StageNode, error) {
	return domain.NewStageNode(domain.NodeSpec{
		Producer:    b.producer,
		Version:     b.version,
		Action:      action,
		Annotations: req.Annotations,
		Views:       req.Views,
		Metadata:    req.Metadata,
		Profile:     req.Profile,
	}, b.validator)
}

// writeResources persists every named table to dir and recomputes
// descriptors by scanning the directory, so persisted counts always match
// what is actually on disk.
func (b *Builder) writeResources(_ context.Context, dir string, format tabular.Format, req Request) ([]domain.ResourceDescriptor, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOWrite, err)
	}
	names := make([]string, 0, len(req.Resources))
	for name := range req.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := tabular.Write(dir, name, format, req.Resources[name]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIOWrite, err)
		}
	}
	descs, err := tabular.DescribeDir(dir)
	if err != nil {
		return nil, err
	}
	return descs, nil
}

func (b *Builder) writeDocument(dir string, doc *domain.DataPackageDocument) error {
	path := filepath.Join(dir, "datapackage.json")
	if err := pkgfile.Write(path, doc); err != nil {
		return fmt.Errorf("%w: %v", ErrIOWrite, err)
	}
	return nil
}
