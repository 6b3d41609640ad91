package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"datapack/pkg/domain"
)

func sampleRecord(id, version string) Record {
	return Record{
		DatasetID: id,
		Title:     "Test dataset",
		Source:    "GEO",
		Version:   version,
		UUID:      "uuid-" + id + "-" + version,
		Nodes:     1,
		BuiltAt:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Path:      "/data/" + id,
	}
}

func TestMemorySearch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, rec := range []Record{
		sampleRecord("GSE1234", "1.0"),
		sampleRecord("GSE1234", "2.0"),
		{DatasetID: "PRJ9", Title: "Mouse atlas", Source: "ENA", Version: "1.0"},
	} {
		if err := m.Put(ctx, rec); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	recs, err := m.Search(ctx, "gse")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[0].Version != "1.0" || recs[1].Version != "2.0" {
		t.Fatalf("records not sorted: %+v", recs)
	}

	recs, err = m.Search(ctx, "mouse")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(recs) != 1 || recs[0].DatasetID != "PRJ9" {
		t.Fatalf("title search failed: %+v", recs)
	}

	recs, err = m.Search(ctx, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("empty query returned %d records", len(recs))
	}
}

func TestMemoryUpsert(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := sampleRecord("GSE1234", "1.0")
	if err := m.Put(ctx, rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	rec.Nodes = 4
	if err := m.Put(ctx, rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	recs, err := m.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 || recs[0].Nodes != 4 {
		t.Fatalf("upsert failed: %+v", recs)
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "catalog.db")

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	if err := s.Put(ctx, sampleRecord("GSE1234", "1.0")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, sampleRecord("GSE1234", "2.0")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	recs, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records after reopen, want 2", len(recs))
	}
	if recs[0].UUID != "uuid-GSE1234-1.0" {
		t.Fatalf("record payload lost: %+v", recs[0])
	}

	// drivers agree on search results
	mem := NewMemory()
	for _, rec := range recs {
		if err := mem.Put(ctx, rec); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	fromSQL, err := reopened.Search(ctx, "test")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	fromMem, err := mem.Search(ctx, "test")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(fromSQL) != len(fromMem) {
		t.Fatalf("driver mismatch: %d vs %d", len(fromSQL), len(fromMem))
	}
}

func TestFromDocument(t *testing.T) {
	root, err := domain.NewStageNode(domain.NodeSpec{Producer: "datapack", Version: "0.1.0", Action: domain.ActionBuild}, nil)
	if err != nil {
		t.Fatalf("NewStageNode: %v", err)
	}
	graph, err := domain.NewGraph(root)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	doc := &domain.DataPackageDocument{
		Info: domain.PackageInfo{
			Dataset: domain.DatasetInfo{ID: "GSE1234", Title: "Test dataset"},
			Source:  domain.SourceInfo{Title: "GEO"},
			Version: "1.0",
		},
		Provenance: graph,
	}
	rec := FromDocument(doc, "/data/pkg")
	if rec.DatasetID != "GSE1234" || rec.UUID != root.ID || rec.Nodes != 1 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if !rec.BuiltAt.Equal(root.Time) {
		t.Fatalf("built-at %v, want node time %v", rec.BuiltAt, root.Time)
	}
}
