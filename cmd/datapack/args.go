package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"datapack/internal/tabular"
	"datapack/pkg/domain"
)

// Arguments prefixed with "@" reference files; everything else is taken as
// a literal value. The caller decides, never a filesystem probe.
const fileRefPrefix = "@"

func parseAnnotationArgs(args []string) []domain.AnnotationSource {
	out := make([]domain.AnnotationSource, 0, len(args))
	for _, a := range args {
		if path, ok := strings.CutPrefix(a, fileRefPrefix); ok {
			out = append(out, domain.AnnotationFile(path))
		} else {
			out = append(out, domain.LiteralAnnotation(a))
		}
	}
	return out
}

func parseViewArgs(args []string) ([]domain.ViewSource, error) {
	out := make([]domain.ViewSource, 0, len(args))
	for _, v := range args {
		if path, ok := strings.CutPrefix(v, fileRefPrefix); ok {
			out = append(out, domain.ViewFile(path))
			continue
		}
		var spec map[string]any
		if err := yaml.Unmarshal([]byte(v), &spec); err != nil {
			return nil, fmt.Errorf("parse inline view: %w", err)
		}
		out = append(out, domain.InlineView(spec))
	}
	return out, nil
}

// parseMetadataArg accepts inline YAML/JSON or an @path to a YAML/JSON file.
func parseMetadataArg(arg string) (map[string]any, error) {
	if arg == "" {
		return map[string]any{}, nil
	}
	raw := []byte(arg)
	if path, ok := strings.CutPrefix(arg, fileRefPrefix); ok {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read metadata file: %w", err)
		}
	}
	var md map[string]any
	if err := yaml.Unmarshal(raw, &md); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return md, nil
}

// parseResourceArgs maps repeated name=path arguments to loaded tables.
func parseResourceArgs(args []string) (map[string]*tabular.Table, error) {
	resources := make(map[string]*tabular.Table, len(args))
	for _, arg := range args {
		name, path, ok := strings.Cut(arg, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid resource %q (want name=path)", arg)
		}
		tbl, err := tabular.Load(path)
		if err != nil {
			return nil, err
		}
		resources[name] = tbl
	}
	return resources, nil
}
