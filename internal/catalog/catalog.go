// Package catalog indexes built and published data packages so the CLI can
// answer search queries without re-reading package directories. Drivers
// follow a snapshot model: an embedded in-memory index serves reads, and
// persistent drivers write the full snapshot after every successful
// mutation.
package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"datapack/pkg/domain"
)

// Record summarizes one built package version.
type Record struct {
	DatasetID string    `json:"dataset_id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	UUID      string    `json:"uuid"` // frontier node id
	Nodes     int       `json:"nodes"`
	BuiltAt   time.Time `json:"built_at"`
	Path      string    `json:"path"` // local dir or blob prefix
}

func (r Record) key() string { return r.DatasetID + "@" + r.Version }

// Store is the catalog contract: upsert by (dataset id, version), list, and
// case-insensitive substring search over id/title/source.
type Store interface {
	Put(ctx context.Context, rec Record) error
	List(ctx context.Context) ([]Record, error)
	Search(ctx context.Context, query string) ([]Record, error)
	Close() error
}

// FromDocument derives a catalog record from a package document.
func FromDocument(doc *domain.DataPackageDocument, path string) Record {
	rec := Record{
		DatasetID: doc.Info.Dataset.ID,
		Title:     doc.Info.Dataset.Title,
		Source:    doc.Info.Source.Title,
		Version:   doc.Info.Version,
		UUID:      doc.Provenance.CurrentID(),
		Nodes:     doc.Provenance.NodeCount(),
		BuiltAt:   time.Now().UTC(),
		Path:      path,
	}
	if node, err := doc.Provenance.ResolveFocus(""); err == nil {
		rec.BuiltAt = node.Time
	}
	return rec
}

// Memory is the in-memory index all drivers embed.
type Memory struct {
	mu   sync.RWMutex
	recs map[string]Record
}

// NewMemory returns an empty in-memory catalog.
func NewMemory() *Memory {
	return &Memory{recs: make(map[string]Record)}
}

func (m *Memory) Put(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[rec.key()] = rec
	return nil
}

func (m *Memory) List(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(), nil
}

func (m *Memory) Search(_ context.Context, query string) ([]Record, error) {
	q := strings.ToLower(query)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, rec := range m.snapshotLocked() {
		if q == "" ||
			strings.Contains(strings.ToLower(rec.DatasetID), q) ||
			strings.Contains(strings.ToLower(rec.Title), q) ||
			strings.Contains(strings.ToLower(rec.Source), q) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }

// Snapshot returns every record sorted by dataset id then version.
func (m *Memory) Snapshot() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Import replaces the index contents with recs.
func (m *Memory) Import(recs []Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = make(map[string]Record, len(recs))
	for _, rec := range recs {
		m.recs[rec.key()] = rec
	}
}

func (m *Memory) snapshotLocked() []Record {
	out := make([]Record, 0, len(m.recs))
	for _, rec := range m.recs {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DatasetID != out[j].DatasetID {
			return out[i].DatasetID < out[j].DatasetID
		}
		return out[i].Version < out[j].Version
	})
	return out
}
