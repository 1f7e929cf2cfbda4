package md5verify

import (
	"errors"
	"testing"
)

func TestEntrySet_OrderedIteration(t *testing.T) {
	set := NewEntrySet()
	for _, name := range []string{"c", "a", "B", "b"} {
		set.Put(name, digestA, NewContext)
	}

	var names []string
	for _, entry := range set.Entries() {
		names = append(names, entry.Name)
	}

	expected := []string{"B", "a", "b", "c"}
	if len(names) != len(expected) {
		t.Fatalf("Expected %d entries, got %d", len(expected), len(names))
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Expected entry %d to be %q, got %q", i, expected[i], names[i])
		}
	}
}

func TestEntrySet_PutReplaces(t *testing.T) {
	set := NewEntrySet()
	set.Put("file", digestA, NewContext)
	set.Put("file", digestABC, ExistingContext)

	if set.Len() != 1 {
		t.Fatalf("Expected 1 entry, got %d", set.Len())
	}
	digest, context, ok := set.Get("file")
	if !ok {
		t.Fatal("Expected entry to be present")
	}
	if digest != digestABC {
		t.Errorf("Expected digest %s, got %s", digestABC, digest)
	}
	if context != ExistingContext {
		t.Errorf("Expected context %q, got %q", ExistingContext, context)
	}
}

func TestEntrySet_Delete(t *testing.T) {
	set := NewEntrySet()
	set.Put("gone", digestA, ExistingContext)

	if !set.Delete("gone") {
		t.Error("Expected Delete to report removal")
	}
	if set.Has("gone") {
		t.Error("Expected entry to be removed")
	}
	if !set.IsEmpty() {
		t.Error("Expected set to be empty")
	}
	if _, _, ok := set.Get("gone"); ok {
		t.Error("Expected Get to miss after Delete")
	}
}

func TestEntrySet_Merge(t *testing.T) {
	existing := NewEntrySet()
	existing.Put("old", digestA, ExistingContext)
	fresh := NewEntrySet()
	fresh.Put("new", digestABC, NewContext)

	if err := existing.Merge(fresh); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if existing.Len() != 2 {
		t.Fatalf("Expected 2 entries after merge, got %d", existing.Len())
	}
	if n := existing.CountContext(NewContext); n != 1 {
		t.Errorf("Expected 1 new entry, got %d", n)
	}
	if n := existing.CountContext(ExistingContext); n != 1 {
		t.Errorf("Expected 1 existing entry, got %d", n)
	}

	m := existing.Map()
	if m["old"] != digestA || m["new"] != digestABC {
		t.Errorf("Unexpected merged content: %v", m)
	}
}

func TestEntrySet_MergeOverlap(t *testing.T) {
	existing := NewEntrySet()
	existing.Put("same", digestA, ExistingContext)
	fresh := NewEntrySet()
	fresh.Put("same", digestABC, NewContext)

	err := existing.Merge(fresh)
	if !errors.Is(err, ErrMergeOverlap) {
		t.Fatalf("Expected ErrMergeOverlap, got %v", err)
	}

	// existing keeps its own digest
	if digest, _, _ := existing.Get("same"); digest != digestA {
		t.Errorf("Expected digest %s to survive failed merge, got %s", digestA, digest)
	}
}

func TestEntrySet_Lines(t *testing.T) {
	set := NewEntrySet()
	set.Put("b\\x", digestA, NewContext)
	set.Put("a", digestABC, NewContext)

	lines := set.Lines()
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if string(lines[0]) != digestABC+"  a\n" {
		t.Errorf("Unexpected first line %q", lines[0])
	}
	if string(lines[1]) != "\\"+digestA+"  b\\\\x\n" {
		t.Errorf("Unexpected second line %q", lines[1])
	}
}
