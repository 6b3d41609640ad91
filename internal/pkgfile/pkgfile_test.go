package pkgfile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"datapack/pkg/domain"
)

func sampleDocument(t *testing.T) *domain.DataPackageDocument {
	t.Helper()
	root, err := domain.NewStageNode(domain.NodeSpec{
		Producer:    "datapack",
		Version:     "0.1.0",
		Action:      domain.ActionBuild,
		Annotations: []domain.AnnotationSource{domain.LiteralAnnotation("initial import")},
		Views:       []domain.ViewSource{domain.InlineView(map[string]any{"name": "scatter", "mark": "point"})},
		Metadata:    map[string]any{"note": "v1"},
	}, nil)
	if err != nil {
		t.Fatalf("NewStageNode: %v", err)
	}
	graph, err := domain.NewGraph(root)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	return &domain.DataPackageDocument{
		Info: domain.PackageInfo{
			Dataset:     domain.DatasetInfo{ID: "GSE1234", Title: "Test dataset"},
			Source:      domain.SourceInfo{Title: "GEO"},
			Version:     "1.0",
			Rows:        "genes",
			Columns:     "samples",
			Provenance:  map[string]any{"pipeline": "fetch"},
			ProfileName: "biodat",
			ProfileData: map[string]any{"species": "H. sapiens"},
		},
		Resources: []domain.ResourceDescriptor{{
			Name: "counts", Path: "counts.csv", Format: "csv",
			Rows: 2, Columns: 3, Digest: "abc",
			Fields: []domain.SchemaField{{Name: "gene", Type: "string"}},
		}},
		Provenance: graph,
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "datapackage.json")
	if err := os.WriteFile(file, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Resolve(dir)
	if err != nil || got != file {
		t.Fatalf("Resolve(dir) = %q, %v", got, err)
	}
	got, err = Resolve(file)
	if err != nil || got != file {
		t.Fatalf("Resolve(file) = %q, %v", got, err)
	}

	if _, err := Resolve(filepath.Join(dir, "missing")); !errors.Is(err, ErrPackageNotFound) {
		t.Fatalf("expected ErrPackageNotFound, got %v", err)
	}
	other := filepath.Join(dir, "other.json")
	if err := os.WriteFile(other, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Resolve(other); !errors.Is(err, ErrPackageNotFound) {
		t.Fatalf("expected ErrPackageNotFound for wrong basename, got %v", err)
	}
}

func TestResolveEmptyDir(t *testing.T) {
	if _, err := Resolve(t.TempDir()); !errors.Is(err, ErrPackageNotFound) {
		t.Fatalf("expected ErrPackageNotFound, got %v", err)
	}
}

func documentsEqual(t *testing.T, a, b *domain.DataPackageDocument) {
	t.Helper()
	if !reflect.DeepEqual(a.Info, b.Info) {
		t.Fatalf("info mismatch:\n%+v\n%+v", a.Info, b.Info)
	}
	if !reflect.DeepEqual(a.Resources, b.Resources) {
		t.Fatalf("resources mismatch:\n%+v\n%+v", a.Resources, b.Resources)
	}
	if a.Provenance.CurrentID() != b.Provenance.CurrentID() {
		t.Fatal("frontier mismatch")
	}
	if !reflect.DeepEqual(a.Provenance.Edges(), b.Provenance.Edges()) {
		t.Fatal("edges mismatch")
	}
	an, bn := a.Provenance.Nodes(), b.Provenance.Nodes()
	if len(an) != len(bn) {
		t.Fatalf("node count mismatch %d != %d", len(an), len(bn))
	}
	for id, x := range an {
		y, ok := bn[id]
		if !ok {
			t.Fatalf("node %s missing", id)
		}
		if !x.Time.Equal(y.Time) {
			t.Fatalf("node %s time %v != %v", id, x.Time, y.Time)
		}
		x.Time, y.Time = time.Time{}, time.Time{}
		if !reflect.DeepEqual(x, y) {
			t.Fatalf("node mismatch:\n%+v\n%+v", x, y)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, name := range ValidNames {
		t.Run(name, func(t *testing.T) {
			doc := sampleDocument(t)
			path := filepath.Join(t.TempDir(), name)
			if err := Write(path, doc); err != nil {
				t.Fatalf("Write: %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			documentsEqual(t, doc, loaded)
		})
	}
}

func TestLoadLegacyNamespaces(t *testing.T) {
	doc := sampleDocument(t)
	dir := t.TempDir()
	canonical := filepath.Join(dir, "datapackage.json")
	if err := Write(canonical, doc); err != nil {
		t.Fatalf("Write: %v", err)
	}
	raw, err := os.ReadFile(canonical)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, ns := range []string{"io-dag", "eco"} {
		t.Run(ns, func(t *testing.T) {
			legacy := []byte(strings.Replace(string(raw), `"iodag"`, `"`+ns+`"`, 1))
			legacyDir := t.TempDir()
			path := filepath.Join(legacyDir, "datapackage.json")
			if err := os.WriteFile(path, legacy, 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			documentsEqual(t, doc, loaded)
		})
	}
}

func TestWriteEmitsExplicitProfileKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datapackage.json")
	if err := Write(path, sampleDocument(t)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), `"profile": "biodat"`) {
		t.Fatal("written document lacks explicit profile key")
	}
}

func TestDetectProfilePrefersExplicitKey(t *testing.T) {
	// two non-reserved dict keys; the explicit profile key removes the ambiguity
	raw := `{
	  "iodag": {
	    "uuid": "n1",
	    "nodes": {"n1": {"name": "datapack", "action": "build", "time": "2024-03-01T12:00:00Z", "version": "0.1.0", "annot": [], "views": [], "metadata": {}}},
	    "edges": [],
	    "metadata": {
	      "data": {"dataset": {"id": "GSE1", "title": "T"}},
	      "profile": "biodat",
	      "biodat": {"species": "H. sapiens"},
	      "aux": {"free": "form"}
	    }
	  },
	  "resources": []
	}`
	path := filepath.Join(t.TempDir(), "datapackage.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Info.ProfileName != "biodat" {
		t.Fatalf("profile name %q, want biodat", doc.Info.ProfileName)
	}
	if doc.Info.ProfileData["species"] != "H. sapiens" {
		t.Fatalf("profile data %v", doc.Info.ProfileData)
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datapackage.json")

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, ErrMalformedPackage) {
		t.Fatalf("expected ErrMalformedPackage for bad syntax, got %v", err)
	}

	if err := os.WriteFile(path, []byte(`{"resources": []}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, ErrMalformedPackage) {
		t.Fatalf("expected ErrMalformedPackage for missing provenance, got %v", err)
	}
}

func TestWriteIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "datapackage.json")
	if err := Write(path, sampleDocument(t)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "datapackage.json" {
		t.Fatalf("temp files left behind: %v", entries)
	}
}
