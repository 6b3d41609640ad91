// Package tabular writes named tables to delimited files and derives
// resource descriptors by reading the written files back, so persisted
// row/column counts always match what is on disk.
package tabular

import (
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"lukechampine.com/blake3"

	"datapack/pkg/domain"
)

// Table is an in-memory tabular resource: a header row plus data rows.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Format identifies a supported delimited file format.
type Format string

const (
	FormatCSV Format = "csv"
	FormatTSV Format = "tsv"
)

func (f Format) delimiter() rune {
	if f == FormatTSV {
		return '\t'
	}
	return ','
}

// ParseFormat maps a format name to a supported Format. The empty string
// defaults to CSV; anything but csv/tsv is rejected.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatTSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported resource format %q", name)
	}
}

// formatForPath maps a file extension to its format, or "" when the file is
// not a recognized tabular resource.
func formatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV
	case ".tsv":
		return FormatTSV
	}
	return ""
}

// Write persists the table as <name>.<format> under dir and returns the
// written path.
func Write(dir, name string, format Format, tbl *Table) (string, error) {
	if format != FormatCSV && format != FormatTSV {
		return "", fmt.Errorf("unsupported resource format %q", format)
	}
	path := filepath.Join(dir, name+"."+string(format))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("write resource %s: %w", name, err)
	}
	w := csv.NewWriter(f)
	w.Comma = format.delimiter()
	if len(tbl.Columns) > 0 {
		if err := w.Write(tbl.Columns); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write resource %s: %w", name, err)
		}
	}
	for _, row := range tbl.Rows {
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write resource %s: %w", name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write resource %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write resource %s: %w", name, err)
	}
	return path, nil
}

// Load reads a delimited file back into a Table, choosing the delimiter from
// the file extension.
func Load(path string) (*Table, error) {
	format := formatForPath(path)
	if format == "" {
		return nil, fmt.Errorf("unrecognized tabular format: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	r := csv.NewReader(f)
	r.Comma = format.delimiter()
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", path, err)
	}
	tbl := &Table{}
	if len(records) > 0 {
		tbl.Columns = records[0]
		tbl.Rows = records[1:]
	}
	return tbl, nil
}

// Describe derives a resource descriptor from a written file: row and column
// counts, inferred field types, and a blake3 content digest.
func Describe(path string) (domain.ResourceDescriptor, error) {
	format := formatForPath(path)
	if format == "" {
		return domain.ResourceDescriptor{}, fmt.Errorf("unrecognized tabular format: %s", path)
	}
	tbl, err := Load(path)
	if err != nil {
		return domain.ResourceDescriptor{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.ResourceDescriptor{}, fmt.Errorf("describe %s: %w", path, err)
	}
	sum := blake3.Sum256(raw)
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	desc := domain.ResourceDescriptor{
		Name:    name,
		Path:    filepath.Base(path),
		Format:  string(format),
		Rows:    len(tbl.Rows),
		Columns: len(tbl.Columns),
		Digest:  hex.EncodeToString(sum[:]),
		Fields:  inferFields(tbl),
	}
	return desc, nil
}

// DescribeDir globs dir (non-recursive) for tabular resources and returns
// their descriptors sorted by resource name.
func DescribeDir(dir string) ([]domain.ResourceDescriptor, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), "*.{csv,tsv}")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(matches)
	descs := make([]domain.ResourceDescriptor, 0, len(matches))
	for _, m := range matches {
		d, err := Describe(filepath.Join(dir, m))
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	return descs, nil
}

// inferFields assigns each column the narrowest type that fits every value:
// integer, then number, then boolean, else string. Empty cells are ignored.
func inferFields(tbl *Table) []domain.SchemaField {
	fields := make([]domain.SchemaField, len(tbl.Columns))
	for i, col := range tbl.Columns {
		fields[i] = domain.SchemaField{Name: col, Type: inferColumnType(tbl.Rows, i)}
	}
	return fields
}

func inferColumnType(rows [][]string, col int) string {
	isInt, isNum, isBool := true, true, true
	seen := false
	for _, row := range rows {
		if col >= len(row) || row[col] == "" {
			continue
		}
		seen = true
		v := row[col]
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			isInt = false
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			isNum = false
		}
		if _, err := strconv.ParseBool(v); err != nil {
			isBool = false
		}
	}
	switch {
	case !seen:
		return "string"
	case isInt:
		return "integer"
	case isNum:
		return "number"
	case isBool:
		return "boolean"
	default:
		return "string"
	}
}
