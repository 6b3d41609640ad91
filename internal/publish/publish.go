// Package publish copies a built data package into a shared blob store so
// other tooling can discover and fetch it.
package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"datapack/internal/blob"
	"datapack/internal/pkgfile"
)

// Result reports where a package landed.
type Result struct {
	Prefix string
	Keys   []string
}

// Publish uploads the package at pkgPath (a package directory or metadata
// file) under the key prefix <dataset id>/<version>/. The metadata document
// is uploaded last so a listed package is always complete; create-only puts
// mean an already-published (dataset, version) pair fails rather than being
// overwritten.
func Publish(ctx context.Context, store blob.Store, pkgPath string) (Result, error) {
	file, err := pkgfile.Resolve(pkgPath)
	if err != nil {
		return Result{}, err
	}
	doc, err := pkgfile.Load(file)
	if err != nil {
		return Result{}, err
	}
	if doc.Info.Dataset.ID == "" {
		return Result{}, fmt.Errorf("package has no dataset id; cannot derive publish prefix")
	}
	version := doc.Info.Version
	if version == "" {
		version = doc.Provenance.CurrentID()
	}
	prefix := doc.Info.Dataset.ID + "/" + version + "/"
	dir := filepath.Dir(file)

	res := Result{Prefix: prefix}
	for _, r := range doc.Resources {
		key, err := putFile(ctx, store, prefix+r.Path, filepath.Join(dir, r.Path), contentTypeFor(r.Format))
		if err != nil {
			return Result{}, err
		}
		res.Keys = append(res.Keys, key)
	}
	key, err := putFile(ctx, store, prefix+filepath.Base(file), file, "application/json")
	if err != nil {
		return Result{}, err
	}
	res.Keys = append(res.Keys, key)
	return res, nil
}

func putFile(ctx context.Context, store blob.Store, key, path, contentType string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	if _, err := store.Put(ctx, key, f, blob.PutOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("publish %s: %w", key, err)
	}
	return key, nil
}

func contentTypeFor(format string) string {
	switch format {
	case "csv":
		return "text/csv"
	case "tsv":
		return "text/tab-separated-values"
	}
	return "application/octet-stream"
}
