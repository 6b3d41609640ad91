package domain

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeValidator struct {
	err    error
	called int
}

func (f *fakeValidator) Check(doc map[string]any, profile string) error {
	f.called++
	return f.err
}

func TestNewStageNodeResolvesSources(t *testing.T) {
	dir := t.TempDir()
	annotPath := filepath.Join(dir, "overview.md")
	if err := os.WriteFile(annotPath, []byte("# Overview\nfetched upstream data\n"), 0o644); err != nil {
		t.Fatalf("write annot: %v", err)
	}
	viewPath := filepath.Join(dir, "scatter.json")
	if err := os.WriteFile(viewPath, []byte(`{"name":"scatter","mark":"point"}`), 0o644); err != nil {
		t.Fatalf("write view: %v", err)
	}

	node, err := NewStageNode(NodeSpec{
		Producer: "test",
		Version:  "0.0.1",
		Action:   ActionBuild,
		Annotations: []AnnotationSource{
			LiteralAnnotation("annotation 1"),
			AnnotationFile(annotPath),
		},
		Views: []ViewSource{
			InlineView(map[string]any{"name": "inline"}),
			ViewFile(viewPath),
		},
		Metadata: map[string]any{"k": "v"},
	}, nil)
	if err != nil {
		t.Fatalf("NewStageNode: %v", err)
	}
	if node.ID == "" {
		t.Fatal("node missing id")
	}
	want := []string{"annotation 1", "# Overview\nfetched upstream data\n"}
	if len(node.Annotations) != 2 || node.Annotations[0] != want[0] || node.Annotations[1] != want[1] {
		t.Fatalf("annotations %q, want %q", node.Annotations, want)
	}
	if len(node.Views) != 2 {
		t.Fatalf("views %d, want 2", len(node.Views))
	}
	if node.Views[0]["name"] != "inline" || node.Views[1]["mark"] != "point" {
		t.Fatalf("unexpected views %v", node.Views)
	}
	if node.Metadata["k"] != "v" {
		t.Fatalf("metadata not carried: %v", node.Metadata)
	}
}

func TestNewStageNodeInvalidSources(t *testing.T) {
	_, err := NewStageNode(NodeSpec{
		Producer:    "test",
		Action:      ActionBuild,
		Annotations: []AnnotationSource{AnnotationFile("/does/not/exist.md")},
	}, nil)
	var serr ErrInvalidSource
	if !errors.As(err, &serr) || serr.Kind != SourceAnnotation {
		t.Fatalf("expected annotation source error, got %v", err)
	}

	_, err = NewStageNode(NodeSpec{
		Producer: "test",
		Action:   ActionBuild,
		Views:    []ViewSource{ViewFile("/does/not/exist.json")},
	}, nil)
	if !errors.As(err, &serr) || serr.Kind != SourceView {
		t.Fatalf("expected view source error, got %v", err)
	}
}

func TestNewStageNodeViewFileMustBeJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := NewStageNode(NodeSpec{
		Producer: "test",
		Action:   ActionBuild,
		Views:    []ViewSource{ViewFile(path)},
	}, nil)
	var serr ErrInvalidSource
	if !errors.As(err, &serr) {
		t.Fatalf("expected view source error, got %v", err)
	}
}

func TestNewStageNodeValidation(t *testing.T) {
	v := &fakeValidator{err: &ValidationError{Fields: map[string]string{"species": "required field is missing"}}}
	_, err := NewStageNode(NodeSpec{
		Producer: "test",
		Action:   ActionBuild,
		Metadata: map[string]any{},
		Profile:  "biodat",
	}, v)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["species"]; !ok {
		t.Fatalf("field errors %v missing species", verr.Fields)
	}
	if v.called != 1 {
		t.Fatalf("validator called %d times", v.called)
	}
}

func TestNewStageNodeSkipsValidationWithoutProfile(t *testing.T) {
	v := &fakeValidator{err: &ValidationError{}}
	if _, err := NewStageNode(NodeSpec{Producer: "test", Action: ActionBuild}, v); err != nil {
		t.Fatalf("NewStageNode: %v", err)
	}
	if v.called != 0 {
		t.Fatal("validator called despite empty profile")
	}
}
