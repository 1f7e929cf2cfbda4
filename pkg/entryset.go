package md5verify

import (
	"errors"
	"fmt"
	"strings"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// ErrMergeOverlap is returned when two entry sets that must be disjoint share a filename.
var ErrMergeOverlap = errors.New("entry sets overlap")

// EntrySet is a filename-ordered set of manifest entries. Every entry carries a
// context tag (ExistingContext or NewContext) recording where it came from.
type EntrySet struct {
	skiplist *zcsl.ZeroCopySkiplist[Entry, string, string]
}

// NewEntrySet creates an empty entry set.
func NewEntrySet() *EntrySet {
	getKeyFromItem := func(e *Entry) string {
		return e.Name
	}

	// size of the rendered manifest line
	getItemSize := func(e *Entry) int {
		return len(EncodeEntry(e.Name, e.Digest))
	}

	skiplist := zcsl.MakeZeroCopySkiplist[Entry, string, string](
		16,
		getKeyFromItem,
		getItemSize,
		strings.Compare,
	)

	return &EntrySet{skiplist: skiplist}
}

// Put records digest for name, replacing the digest and context of an entry
// that is already present.
func (s *EntrySet) Put(name, digest, context string) {
	if itemPtr, _ := s.skiplist.Find(name); itemPtr != nil {
		itemPtr.Item().Digest = digest
		s.skiplist.UpdateContext(name, context)
		return
	}
	s.skiplist.Insert(&Entry{Name: name, Digest: digest}, context)
}

// Get returns the digest and context stored for name.
func (s *EntrySet) Get(name string) (digest, context string, ok bool) {
	itemPtr, context := s.skiplist.Find(name)
	if itemPtr == nil {
		return "", "", false
	}
	return itemPtr.Item().Digest, context, true
}

// Has reports whether name is in the set.
func (s *EntrySet) Has(name string) bool {
	itemPtr, _ := s.skiplist.Find(name)
	return itemPtr != nil
}

// Delete removes name from the set.
func (s *EntrySet) Delete(name string) bool {
	return s.skiplist.Delete(name)
}

// Len returns the number of entries.
func (s *EntrySet) Len() int {
	return s.skiplist.Length()
}

// IsEmpty returns true if the set has no entries.
func (s *EntrySet) IsEmpty() bool {
	return s.skiplist.IsEmpty()
}

// ForEach calls fn for every entry in filename order until fn returns false.
func (s *EntrySet) ForEach(fn func(entry Entry, context string) bool) {
	for current := s.skiplist.First(); current != nil; current = current.Next() {
		if !fn(*current.Item(), current.Context()) {
			return
		}
	}
}

// Entries returns a copy of every entry in filename order.
func (s *EntrySet) Entries() []Entry {
	entries := make([]Entry, 0, s.Len())
	s.ForEach(func(entry Entry, _ string) bool {
		entries = append(entries, entry)
		return true
	})
	return entries
}

// Map returns the set as a filename to digest map.
func (s *EntrySet) Map() map[string]string {
	m := make(map[string]string, s.Len())
	s.ForEach(func(entry Entry, _ string) bool {
		m[entry.Name] = entry.Digest
		return true
	})
	return m
}

// Merge moves every entry of other into s. The two sets must not share a
// filename; if they do nothing is merged and ErrMergeOverlap is returned.
func (s *EntrySet) Merge(other *EntrySet) error {
	if other == nil {
		return nil
	}

	var overlap []string
	other.ForEach(func(entry Entry, _ string) bool {
		if s.Has(entry.Name) {
			overlap = append(overlap, entry.Name)
		}
		return true
	})
	if len(overlap) > 0 {
		return fmt.Errorf("%w: %q", ErrMergeOverlap, overlap)
	}

	if err := s.skiplist.Merge(other.skiplist, zcsl.MergeError); err != nil {
		return fmt.Errorf("failed to merge entry sets: %w", err)
	}
	return nil
}

// Lines renders every entry as a manifest line in filename order.
func (s *EntrySet) Lines() [][]byte {
	lines := make([][]byte, 0, s.Len())
	s.ForEach(func(entry Entry, _ string) bool {
		lines = append(lines, EncodeEntry(entry.Name, entry.Digest))
		return true
	})
	return lines
}

// CountContext returns how many entries carry context.
func (s *EntrySet) CountContext(context string) int {
	count := 0
	s.ForEach(func(_ Entry, entryContext string) bool {
		if entryContext == context {
			count++
		}
		return true
	})
	return count
}
