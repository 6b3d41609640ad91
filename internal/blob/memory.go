package blob

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"lukechampine.com/blake3"
)

// Memory implements Store in process memory; used by tests and as a
// dry-run publish target.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string]memBlob
}

type memBlob struct {
	data []byte
	info Info
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]memBlob)}
}

func (m *Memory) Driver() Driver { return DriverMemory }

func (m *Memory) Put(_ context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	// store under the cleaned key so key spellings resolve like the
	// filesystem driver's paths do
	clean, err := sanitizeKey(key)
	if err != nil {
		return Info{}, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Info{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.blobs[clean]; exists {
		return Info{}, fmt.Errorf("%w: %s", ErrExists, clean)
	}
	sum := blake3.Sum256(data)
	info := Info{
		Key:          clean,
		Size:         int64(len(data)),
		ContentType:  opts.ContentType,
		Digest:       hex.EncodeToString(sum[:]),
		LastModified: time.Now().UTC(),
	}
	m.blobs[clean] = memBlob{data: data, info: info}
	return info, nil
}

func (m *Memory) Head(_ context.Context, key string) (Info, error) {
	clean, err := sanitizeKey(key)
	if err != nil {
		return Info{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[clean]
	if !ok {
		return Info{}, fmt.Errorf("blob %s: %w", clean, os.ErrNotExist)
	}
	return b.info, nil
}

func (m *Memory) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	clean, err := sanitizeKey(key)
	if err != nil {
		return Info{}, nil, err
	}
	m.mu.RLock()
	b, ok := m.blobs[clean]
	m.mu.RUnlock()
	if !ok {
		return Info{}, nil, fmt.Errorf("blob %s: %w", clean, os.ErrNotExist)
	}
	return b.info, io.NopCloser(bytes.NewReader(b.data)), nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var infos []Info
	for key, b := range m.blobs {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, b.info)
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (m *Memory) Delete(_ context.Context, key string) (bool, error) {
	clean, err := sanitizeKey(key)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[clean]; !ok {
		return false, nil
	}
	delete(m.blobs, clean)
	return true, nil
}
