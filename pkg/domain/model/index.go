package model

import "time"

// IndexVersion is the schema version of persisted indexes. Stored indexes with another
// version are discarded and rebuilt.
const IndexVersion = "2"

// Index is the persisted collection of chunks for one vault.
type Index struct {
	Model      string            `json:"model"`
	Version    string            `json:"version"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Items      []*Chunk          `json:"items"`
	FileHashes map[string]string `json:"file_hashes"`
}

// NewIndex creates an empty index for vectors produced by model.
func NewIndex(model string) *Index {
	return &Index{
		Model:      model,
		Version:    IndexVersion,
		Items:      []*Chunk{},
		FileHashes: map[string]string{},
	}
}

// Clone returns a new index sharing the (immutable) chunks of x. Mutating the clone's item
// slice or hash map does not affect x, so readers holding x keep a consistent snapshot.
func (x *Index) Clone() *Index {
	if x == nil {
		return nil
	}
	cp := &Index{
		Model:      x.Model,
		Version:    x.Version,
		UpdatedAt:  x.UpdatedAt,
		Items:      make([]*Chunk, len(x.Items)),
		FileHashes: make(map[string]string, len(x.FileHashes)),
	}
	copy(cp.Items, x.Items)
	for k, v := range x.FileHashes {
		cp.FileHashes[k] = v
	}
	return cp
}

// DeepCopy returns a copy of x that shares no memory with it.
func (x *Index) DeepCopy() *Index {
	if x == nil {
		return nil
	}
	cp := x.Clone()
	for i, c := range cp.Items {
		cp.Items[i] = c.Copy()
	}
	return cp
}

// RemovePath drops every chunk of path and returns how many were removed. The hash entry is
// left alone.
func (x *Index) RemovePath(path string) int {
	kept := x.Items[:0:0]
	removed := 0
	for _, c := range x.Items {
		if c.Path == path {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	x.Items = kept
	return removed
}

// IsCompatible reports whether x can be read and extended with vectors from model.
func (x *Index) IsCompatible(model string) bool {
	return x != nil && x.Version == IndexVersion && x.Model == model && x.FileHashes != nil
}

// ChunkCount returns the number of stored chunks. A nil index is empty.
func (x *Index) ChunkCount() int {
	if x == nil {
		return 0
	}
	return len(x.Items)
}

// FileCount returns the number of tracked files. A nil index is empty.
func (x *Index) FileCount() int {
	if x == nil {
		return 0
	}
	return len(x.FileHashes)
}
