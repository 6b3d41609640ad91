// Package pkgfile resolves, loads, and writes persisted data-package
// metadata documents. The canonical wire form nests the provenance graph
// under the "iodag" namespace key; the historical "io-dag" and "eco"
// spellings are accepted on load and rewritten canonically.
package pkgfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"datapack/pkg/domain"
)

// Namespace is the canonical top-level key holding provenance and metadata.
const Namespace = "iodag"

// legacyNamespaces are accepted on load for older packages.
var legacyNamespaces = []string{"io-dag", "eco"}

// ValidNames are the recognized package metadata file names.
var ValidNames = []string{"datapackage.json", "datapackage.yml", "datapackage.yaml"}

var (
	// ErrPackageNotFound indicates the path does not resolve to a
	// recognized package file or directory.
	ErrPackageNotFound = errors.New("package not found")
	// ErrMalformedPackage indicates the file parses but lacks the
	// required provenance structure.
	ErrMalformedPackage = errors.New("malformed package")
)

// Resolve maps a user-supplied path to a concrete package metadata file.
// Directories are searched (non-recursive) for one of ValidNames; files must
// already carry one of those base names.
func Resolve(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPackageNotFound, path)
	}
	if info.IsDir() {
		for _, name := range ValidNames {
			candidate := filepath.Join(path, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		return "", fmt.Errorf("%w: no package file in %s", ErrPackageNotFound, path)
	}
	base := filepath.Base(path)
	for _, name := range ValidNames {
		if base == name {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s is not a package file", ErrPackageNotFound, path)
}

// Load resolves path and parses the document it points at.
func Load(path string) (*domain.DataPackageDocument, error) {
	file, err := Resolve(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, file)
	}
	var top map[string]any
	if strings.HasSuffix(file, ".json") {
		if err := json.Unmarshal(raw, &top); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPackage, err)
		}
	} else {
		if err := yaml.Unmarshal(raw, &top); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPackage, err)
		}
	}
	return decodeDocument(top)
}

// Write serializes doc to path (one of ValidNames, JSON or YAML by
// extension) via a temporary file and atomic rename, so a reader never
// observes a half-written document and a failed write leaves any previous
// document intact.
func Write(path string, doc *domain.DataPackageDocument) error {
	top, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	var raw []byte
	if strings.HasSuffix(path, ".json") {
		raw, err = json.MarshalIndent(top, "", "  ")
	} else {
		raw, err = yaml.Marshal(top)
	}
	if err != nil {
		return fmt.Errorf("encode package: %w", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".datapackage-*")
	if err != nil {
		return fmt.Errorf("write package: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write package: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write package: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write package: %w", err)
	}
	return nil
}
