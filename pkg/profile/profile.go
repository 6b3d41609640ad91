// Package profile implements schema-based metadata validation for data
// packages. A profile is a named, domain-specific extension of the base
// metadata schema; validating against a profile merges the profile's fields
// into the base schema as a nested required sub-schema so a single pass
// produces one consolidated error report.
package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"datapack/pkg/domain"
)

// BaseSchemaName is the schema every metadata document is checked against.
const BaseSchemaName = "base"

// Schema is a cerberus-style validation schema: field name to rule map.
// Supported rules: type (string|integer|number|boolean|list|dict), required,
// allowed, and schema (nested Schema for dict fields).
type Schema map[string]any

// Registry resolves named schemas from in-memory registrations first and a
// profiles directory (one <name>.yml per schema) second. It implements
// domain.SchemaValidator.
type Registry struct {
	dir     string
	schemas map[string]Schema
}

var _ domain.SchemaValidator = (*Registry)(nil)

// NewRegistry returns a registry backed by the given profiles directory.
// An empty dir restricts lookup to registered schemas.
func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir, schemas: make(map[string]Schema)}
}

// Register adds or replaces an in-memory schema.
func (r *Registry) Register(name string, s Schema) {
	r.schemas[name] = s
}

func (r *Registry) schema(name string) (Schema, error) {
	if s, ok := r.schemas[name]; ok {
		return s, nil
	}
	if r.dir == "" {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	b, err := os.ReadFile(filepath.Join(r.dir, name+".yml"))
	if err != nil {
		return nil, fmt.Errorf("load schema %q: %w", name, err)
	}
	var s Schema
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse schema %q: %w", name, err)
	}
	return s, nil
}

// Check validates doc against the base schema, extended with the named
// profile's fields when profile is non-empty. Schema violations come back as
// a *domain.ValidationError carrying every field error; lookup failures and
// unrecognized profile names are reported as plain errors.
func (r *Registry) Check(doc map[string]any, profile string) error {
	base, err := r.schema(BaseSchemaName)
	if err != nil {
		return err
	}
	merged := make(Schema, len(base)+1)
	for k, v := range base {
		merged[k] = v
	}
	if profile != "" && profile != BaseSchemaName {
		if !profileAllowed(base, profile) {
			return fmt.Errorf("unrecognized profile %q", profile)
		}
		sub, err := r.schema(profile)
		if err != nil {
			return err
		}
		merged[profile] = map[string]any{
			"type":     "dict",
			"required": true,
			"schema":   map[string]any(sub),
		}
	}
	fields := make(map[string]string)
	checkDocument(doc, merged, "", fields)
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// profileAllowed consults the base schema's "profile" field for its allowed
// values; a base schema without an allowed list accepts any profile name.
func profileAllowed(base Schema, profile string) bool {
	rules, ok := base["profile"].(map[string]any)
	if !ok {
		return true
	}
	allowed, ok := rules["allowed"].([]any)
	if !ok {
		return true
	}
	for _, v := range allowed {
		if s, ok := v.(string); ok && s == profile {
			return true
		}
	}
	return false
}

// DefaultRegistry returns a registry preloaded with the built-in base and
// biodat schemas, with dir as an override location for additional profiles.
func DefaultRegistry(dir string) *Registry {
	r := NewRegistry(dir)
	r.Register(BaseSchemaName, BaseSchema())
	r.Register("biodat", BiodatSchema())
	return r
}

// BaseSchema describes the package-level metadata block common to every
// package: dataset identity, index field names, and provenance details.
func BaseSchema() Schema {
	return Schema{
		"data": map[string]any{
			"type":     "dict",
			"required": true,
			"schema": map[string]any{
				"dataset": map[string]any{
					"type":     "dict",
					"required": true,
					"schema": map[string]any{
						"id":    map[string]any{"type": "string", "required": true},
						"title": map[string]any{"type": "string", "required": true},
					},
				},
				"source": map[string]any{
					"type": "dict",
					"schema": map[string]any{
						"title": map[string]any{"type": "string"},
					},
				},
				"version": map[string]any{"type": "string"},
			},
		},
		"rows":       map[string]any{"type": "string"},
		"columns":    map[string]any{"type": "string"},
		"provenance": map[string]any{"type": "dict"},
		"profile": map[string]any{
			"type":    "string",
			"allowed": []any{"base", "biodat"},
		},
	}
}

// BiodatSchema describes the biological-dataset profile block.
func BiodatSchema() Schema {
	return Schema{
		"species": map[string]any{"type": "string", "required": true},
		"assay":   map[string]any{"type": "string"},
		"disease": map[string]any{"type": "list"},
	}
}
