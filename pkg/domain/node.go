// Package domain defines the core data-package entities: stage nodes, the
// provenance graph that links them, and the package document persisted to
// disk alongside tabular resources.
package domain

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Action names the operation a stage node records.
type Action string

// Canonical stage actions written into provenance nodes.
const (
	ActionBuild  Action = "build"
	ActionUpdate Action = "update"
)

// AnnotationSource is a tagged reference to one annotation: either a literal
// string used verbatim, or a path to a plain-text file whose full contents
// become the annotation. Exactly one of the two is set; the caller decides
// which at the API boundary instead of the core probing the filesystem.
type AnnotationSource struct {
	literal string
	file    string
	isFile  bool
}

// LiteralAnnotation wraps a verbatim annotation string.
func LiteralAnnotation(text string) AnnotationSource {
	return AnnotationSource{literal: text}
}

// AnnotationFile references a plain-text file to ingest as an annotation.
func AnnotationFile(path string) AnnotationSource {
	return AnnotationSource{file: path, isFile: true}
}

func (s AnnotationSource) resolve() (string, error) {
	if !s.isFile {
		return s.literal, nil
	}
	b, err := os.ReadFile(s.file)
	if err != nil {
		return "", ErrInvalidSource{Kind: SourceAnnotation, Ref: s.file, Err: err}
	}
	return string(b), nil
}

// ViewSource is the view counterpart of AnnotationSource: either an inline
// structured view specification, or a path to a JSON file containing one.
type ViewSource struct {
	inline map[string]any
	file   string
	isFile bool
}

// InlineView wraps an already-structured view specification.
func InlineView(spec map[string]any) ViewSource {
	return ViewSource{inline: spec}
}

// ViewFile references a JSON file containing a view specification.
func ViewFile(path string) ViewSource {
	return ViewSource{file: path, isFile: true}
}

func (s ViewSource) resolve() (map[string]any, error) {
	if !s.isFile {
		if s.inline == nil {
			return nil, ErrInvalidSource{Kind: SourceView, Ref: "<nil>"}
		}
		return s.inline, nil
	}
	b, err := os.ReadFile(s.file)
	if err != nil {
		return nil, ErrInvalidSource{Kind: SourceView, Ref: s.file, Err: err}
	}
	var spec map[string]any
	if err := json.Unmarshal(b, &spec); err != nil {
		return nil, ErrInvalidSource{Kind: SourceView, Ref: s.file, Err: fmt.Errorf("parse view spec: %w", err)}
	}
	return spec, nil
}

// StageNode is one recorded step in a dataset's processing history. Once a
// node is linked into a graph it is never mutated; corrections happen by
// appending a new node.
type StageNode struct {
	ID          string
	Producer    string
	Version     string
	Action      Action
	Time        time.Time
	Annotations []string
	Views       []map[string]any
	Metadata    map[string]any
}

// NodeSpec collects the inputs for constructing a stage node.
type NodeSpec struct {
	Producer    string
	Version     string
	Action      Action
	Annotations []AnnotationSource
	Views       []ViewSource
	Metadata    map[string]any
	Profile     string // empty disables schema validation
}

// NewStageNode resolves all annotation and view sources, validates the raw
// metadata against spec.Profile when a validator and profile are supplied,
// and assembles an immutable node with a fresh UUID and UTC timestamp.
// Validation failures abort before any node exists.
func NewStageNode(spec NodeSpec, validator SchemaValidator) (StageNode, error) {
	if spec.Profile != "" && validator != nil {
		if err := validator.Check(spec.Metadata, spec.Profile); err != nil {
			return StageNode{}, err
		}
	}
	annots := make([]string, 0, len(spec.Annotations))
	for _, src := range spec.Annotations {
		text, err := src.resolve()
		if err != nil {
			return StageNode{}, err
		}
		annots = append(annots, text)
	}
	views := make([]map[string]any, 0, len(spec.Views))
	for _, src := range spec.Views {
		v, err := src.resolve()
		if err != nil {
			return StageNode{}, err
		}
		views = append(views, v)
	}
	return StageNode{
		ID:          uuid.NewString(),
		Producer:    spec.Producer,
		Version:     spec.Version,
		Action:      spec.Action,
		Time:        time.Now().UTC(),
		Annotations: annots,
		Views:       views,
		Metadata:    spec.Metadata,
	}, nil
}
