package publish

import (
	"context"
	"errors"
	"io"
	"testing"

	"datapack/internal/blob"
	"datapack/internal/packager"
	"datapack/internal/tabular"
)

func buildSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	b := packager.New("datapack", "0.1.0", nil)
	_, err := b.Build(context.Background(), dir, packager.Request{
		Resources: map[string]*tabular.Table{
			"counts": {Columns: []string{"gene", "count"}, Rows: [][]string{{"BRCA1", "10"}}},
		},
		Metadata: map[string]any{
			"data": map[string]any{
				"dataset": map[string]any{"id": "GSE1234", "title": "Test dataset"},
				"version": "1.0",
			},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return dir
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	dir := buildSample(t)
	store := blob.NewMemory()

	res, err := Publish(ctx, store, dir)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.Prefix != "GSE1234/1.0/" {
		t.Fatalf("prefix %q", res.Prefix)
	}
	if len(res.Keys) != 2 {
		t.Fatalf("published %d keys, want 2", len(res.Keys))
	}
	// metadata document goes up last so listings only ever see complete packages
	if res.Keys[len(res.Keys)-1] != "GSE1234/1.0/datapackage.json" {
		t.Fatalf("metadata not last: %v", res.Keys)
	}

	_, rc, err := store.Get(ctx, "GSE1234/1.0/counts.csv")
	if err != nil {
		t.Fatalf("get resource: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "gene,count\nBRCA1,10\n" {
		t.Fatalf("resource content %q", b)
	}
}

func TestPublishRefusesOverwrite(t *testing.T) {
	ctx := context.Background()
	dir := buildSample(t)
	store := blob.NewMemory()
	if _, err := Publish(ctx, store, dir); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if _, err := Publish(ctx, store, dir); !errors.Is(err, blob.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestPublishMissingPackage(t *testing.T) {
	if _, err := Publish(context.Background(), blob.NewMemory(), t.TempDir()); err == nil {
		t.Fatal("expected error for empty directory")
	}
}
