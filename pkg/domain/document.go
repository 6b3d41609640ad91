package domain

// DatasetInfo identifies the dataset a package carries.
type DatasetInfo struct {
	ID    string
	Title string
}

// SourceInfo identifies where the dataset originated.
type SourceInfo struct {
	Title string
}

// PackageInfo is the package-level metadata block: dataset identity, the
// names of the row/column index fields, free-form provenance details, and an
// optional domain profile block. Identity fields are immutable once set;
// updates carry them forward unchanged.
type PackageInfo struct {
	Dataset     DatasetInfo
	Source      SourceInfo
	Version     string
	Rows        string
	Columns     string
	Provenance  map[string]any
	ProfileName string         // empty when no domain profile applies
	ProfileData map[string]any // present only with ProfileName
}

// SchemaField describes one column of a tabular resource.
type SchemaField struct {
	Name string
	Type string
}

// ResourceDescriptor describes one tabular file in the package. Descriptors
// are always recomputed by reading back written files, never trusted from
// the caller's in-memory counts.
type ResourceDescriptor struct {
	Name    string
	Path    string
	Format  string
	Rows    int
	Columns int
	Digest  string
	Fields  []SchemaField
}

// DataPackageDocument is the complete persisted state of a package: identity
// metadata, resource descriptors, and the provenance graph. Every update
// produces a whole replacement document; the persisted file is the single
// source of truth.
type DataPackageDocument struct {
	Info       PackageInfo
	Resources  []ResourceDescriptor
	Provenance *ProvenanceGraph
}

// ResolveFocus returns the stage node for id, or the frontier node when id
// is empty.
func (d *DataPackageDocument) ResolveFocus(id string) (StageNode, error) {
	return d.Provenance.ResolveFocus(id)
}

// Annotations returns the annotations of the focused node.
func (d *DataPackageDocument) Annotations(id string) ([]string, error) {
	n, err := d.ResolveFocus(id)
	if err != nil {
		return nil, err
	}
	return n.Annotations, nil
}

// Views returns the view specifications of the focused node.
func (d *DataPackageDocument) Views(id string) ([]map[string]any, error) {
	n, err := d.ResolveFocus(id)
	if err != nil {
		return nil, err
	}
	return n.Views, nil
}

// Resource returns the descriptor for the named resource.
func (d *DataPackageDocument) Resource(name string) (ResourceDescriptor, bool) {
	for _, r := range d.Resources {
		if r.Name == name {
			return r, true
		}
	}
	return ResourceDescriptor{}, false
}

// InfoFromMetadata extracts the typed package-level block from a raw
// metadata document using the well-known layout
// data.{dataset{id,title},source{title},version} plus rows/columns/provenance.
// Missing keys yield zero values; validation of required fields is the
// schema validator's job, not this extractor's.
func InfoFromMetadata(metadata map[string]any, profileName string) PackageInfo {
	info := PackageInfo{ProfileName: profileName}
	if data, ok := metadata["data"].(map[string]any); ok {
		if ds, ok := data["dataset"].(map[string]any); ok {
			info.Dataset.ID, _ = ds["id"].(string)
			info.Dataset.Title, _ = ds["title"].(string)
		}
		if src, ok := data["source"].(map[string]any); ok {
			info.Source.Title, _ = src["title"].(string)
		}
		info.Version, _ = data["version"].(string)
	}
	info.Rows, _ = metadata["rows"].(string)
	info.Columns, _ = metadata["columns"].(string)
	if prov, ok := metadata["provenance"].(map[string]any); ok {
		info.Provenance = prov
	}
	if profileName != "" {
		if pd, ok := metadata[profileName].(map[string]any); ok {
			info.ProfileData = pd
		}
	}
	return info
}
