package model

import (
	"strconv"
	"time"
)

// Note is a source document as listed by a note source.
type Note struct {
	// Path identifies the note across listings (relative slash path or source URI).
	Path string
	// Name carries the logical date pattern, e.g. "2024-01-10_08-30.md".
	Name       string
	Text       string
	ModifiedAt time.Time
}

// Marker is the modification marker mixed into the note fingerprint.
func (n *Note) Marker() string {
	return strconv.FormatInt(n.ModifiedAt.UnixMilli(), 10)
}
