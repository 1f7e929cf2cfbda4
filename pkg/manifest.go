package md5verify

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"regexp"
	"strings"
)

// Entry is one manifest line: a filename relative to the manifest's directory
// and the lowercase hex MD5 digest of its content.
type Entry struct {
	Name   string
	Digest string
}

// LineError describes a manifest line that does not follow the md5sum grammar.
type LineError struct {
	Path string // manifest path, empty when decoding raw bytes
	Line int    // 1-based physical line number where the entry starts
	Text string
}

func (e *LineError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid syntax in checksum data at line %d: %q", e.Line, e.Text)
	}
	return fmt.Sprintf("invalid syntax in checksum file %s at line %d: %q", e.Path, e.Line, e.Text)
}

var (
	// (?s) lets the filename group span escaped newlines
	manifestLine = regexp.MustCompile(`(?s)^(\\?)([0-9a-f]{32}) [ *](.+)$`)
	// an escaped entry header, used to decide whether a trailing backslash
	// continues the entry on the next physical line
	escapedHeader = regexp.MustCompile(`^\\[0-9a-f]{32} [ *]`)
)

// DecodeEntries returns a lazy sequence of the valid entries in manifest data.
// Malformed lines are passed to onError (when non-nil) and skipped. The
// sequence can be ranged over any number of times.
func DecodeEntries(data []byte, onError func(*LineError)) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		rest := data
		lineNum := 1
		for len(rest) > 0 {
			logical, remaining, consumed := nextLogicalLine(rest)
			start := lineNum
			rest = remaining
			lineNum += consumed

			entry, ok := parseLine(logical)
			if !ok {
				if onError != nil {
					onError(&LineError{Line: start, Text: logical})
				}
				continue
			}
			if !yield(entry) {
				return
			}
		}
	}
}

// nextLogicalLine splits one entry off data. An escaped entry whose physical
// line ends in an unpaired backslash continues on the following line, which is
// how an embedded newline is written. It returns the entry text without its
// terminating newline, the remaining data and the number of physical lines used.
func nextLogicalLine(data []byte) (string, []byte, int) {
	var logical []byte
	consumed := 0
	for {
		line, rest, found := bytes.Cut(data, []byte{'\n'})
		consumed++
		logical = append(logical, line...)
		data = rest
		if !found || !continuesOnNextLine(logical) {
			return string(logical), data, consumed
		}
		logical = append(logical, '\n')
	}
}

func continuesOnNextLine(logical []byte) bool {
	if !escapedHeader.Match(logical) {
		return false
	}
	trailing := 0
	for i := len(logical) - 1; i >= 0 && logical[i] == EscapeMarker; i-- {
		trailing++
	}
	return trailing%2 == 1
}

func parseLine(line string) (Entry, bool) {
	match := manifestLine.FindStringSubmatch(line)
	if match == nil {
		return Entry{}, false
	}

	name := match[3]
	if match[1] != "" {
		name = unescapeName(name)
	}

	return Entry{Name: name, Digest: match[2]}, true
}

// unescapeName reverses escapeName in a single left to right pass. It also
// accepts the "\n" form GNU md5sum writes for newlines. Unknown escapes are
// kept as written.
func unescapeName(s string) string {
	if !strings.ContainsRune(s, EscapeMarker) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != EscapeMarker || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case EscapeMarker:
			b.WriteByte(EscapeMarker)
		case '\n', 'n':
			b.WriteByte('\n')
		default:
			b.WriteByte(EscapeMarker)
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// needsEscape reports whether name must be written in escaped form.
func needsEscape(name string) bool {
	return strings.ContainsAny(name, "\\\n")
}

// escapeName doubles every backslash, then prefixes every newline with one.
func escapeName(name string) string {
	name = strings.ReplaceAll(name, `\`, `\\`)
	return strings.ReplaceAll(name, "\n", "\\\n")
}

// EncodeEntry renders one manifest line, including the trailing newline.
func EncodeEntry(name, digest string) []byte {
	escaped := needsEscape(name)
	if escaped {
		name = escapeName(name)
	}

	line := make([]byte, 0, len(name)+len(digest)+4)
	if escaped {
		line = append(line, EscapeMarker)
	}
	line = append(line, digest...)
	line = append(line, ' ', TextModeMark)
	line = append(line, name...)
	return append(line, '\n')
}

// Encode writes every entry of set to w in filename order. An empty set
// writes nothing.
func Encode(w io.Writer, set *EntrySet) error {
	for _, line := range set.Lines() {
		if _, err := w.Write(line); err != nil {
			return fmt.Errorf("failed to write manifest line: %w", err)
		}
	}
	return nil
}

// LoadManifest reads and decodes the manifest at path into a new entry set with
// every entry tagged ExistingContext. A manifest that does not exist yields an
// empty set and no error. When a filename appears more than once the last
// line wins.
func LoadManifest(path string, onError func(*LineError)) (*EntrySet, error) {
	set := NewEntrySet()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return set, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checksums file %s: %w", path, err)
	}

	report := onError
	if onError != nil {
		report = func(le *LineError) {
			le.Path = path
			onError(le)
		}
	}

	for entry := range DecodeEntries(data, report) {
		set.Put(entry.Name, entry.Digest, ExistingContext)
	}
	return set, nil
}
