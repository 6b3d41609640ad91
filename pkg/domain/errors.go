package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ErrDuplicateNode reports an attempt to append a node whose id is already
// present in the graph. With UUID ids this indicates an internal consistency
// failure rather than a user error.
type ErrDuplicateNode struct {
	ID string
}

func (e ErrDuplicateNode) Error() string {
	return fmt.Sprintf("duplicate node id %s", e.ID)
}

// ErrUnknownNode reports a focus request for a node id absent from the graph.
type ErrUnknownNode struct {
	ID string
}

func (e ErrUnknownNode) Error() string {
	return fmt.Sprintf("unknown node id %s", e.ID)
}

// SourceKind distinguishes annotation from view sources in error reports.
type SourceKind string

const (
	SourceAnnotation SourceKind = "annotation"
	SourceView       SourceKind = "view"
)

// ErrInvalidSource reports an annotation or view source that could not be
// resolved to either a readable file or a usable literal value.
type ErrInvalidSource struct {
	Kind SourceKind
	Ref  string
	Err  error
}

func (e ErrInvalidSource) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s source %q: %v", e.Kind, e.Ref, e.Err)
	}
	return fmt.Sprintf("invalid %s source %q", e.Kind, e.Ref)
}

func (e ErrInvalidSource) Unwrap() error { return e.Err }

// ValidationError carries the full set of field-level schema errors produced
// by a SchemaValidator. Construction of a stage node aborts when one is
// returned; it is never downgraded to a warning.
type ValidationError struct {
	Fields map[string]string // field path -> message
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "metadata validation failed"
	}
	paths := make([]string, 0, len(e.Fields))
	for p := range e.Fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	var b strings.Builder
	fmt.Fprintf(&b, "metadata validation failed (%d field error(s)):", len(e.Fields))
	for _, p := range paths {
		fmt.Fprintf(&b, "\n  %s: %s", p, e.Fields[p])
	}
	return b.String()
}

// SchemaValidator checks a metadata document against a named profile schema.
// Implementations return nil for a valid document and a *ValidationError
// carrying every field-level error otherwise. The core only consumes this
// contract; schema storage and lookup live with the implementation.
type SchemaValidator interface {
	Check(doc map[string]any, profile string) error
}
