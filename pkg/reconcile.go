package md5verify

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// WriteAction records what happened to a directory's manifest.
type WriteAction int

const (
	WriteSkipped WriteAction = iota // nothing changed, manifest untouched
	WriteWritten                    // manifest replaced
	WriteRemoved                    // nothing left to track, manifest deleted
	WriteDryRun                     // changes found but writing was disabled
	WriteFailed                     // writing or removing the manifest failed
)

func (a WriteAction) String() string {
	switch a {
	case WriteSkipped:
		return "skipped"
	case WriteWritten:
		return "written"
	case WriteRemoved:
		return "removed"
	case WriteDryRun:
		return "dry-run"
	case WriteFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Mismatch is a tracked file whose content no longer matches its recorded digest.
type Mismatch struct {
	Name      string
	OldDigest string
	NewDigest string
}

// DirResult represents the result of reconciling one directory
type DirResult struct {
	Dir        string
	Missing    []string
	Mismatched []Mismatch
	Added      []string
	Unreadable []string
	Malformed  int // manifest lines skipped while decoding
	Hashed     int
	Updated    bool
	Write      WriteAction
	Errors     []error
}

// HasChanges returns true if the directory's manifest needed a rewrite.
func (r *DirResult) HasChanges() bool {
	return r.Updated
}

// DirectoryState is the working data for one directory while it is reconciled.
type DirectoryState struct {
	Dir      string
	Existing *EntrySet // loaded from the manifest, pruned of missing files
	New      *EntrySet // on disk but not in the manifest
	Updated  bool
}

// Reconciler compares the files of a directory with the directory's manifest.
type Reconciler struct {
	Outfile string
	DryRun  bool
	Logger  *slog.Logger
	Verdict *Verdict

	hashFile func(string) (string, error)
}

// NewReconciler creates a reconciler reporting to logger and verdict.
func NewReconciler(outfile string, logger *slog.Logger, verdict *Verdict) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if verdict == nil {
		verdict = &Verdict{}
	}
	return &Reconciler{
		Outfile:  outfile,
		Logger:   logger,
		Verdict:  verdict,
		hashFile: HashFile,
	}
}

// ManifestPath returns the manifest location for dir.
func (r *Reconciler) ManifestPath(dir string) string {
	return filepath.Join(dir, r.Outfile)
}

// ReconcileDir reconciles the directory described by listing against its
// manifest and rewrites the manifest when anything changed.
func (r *Reconciler) ReconcileDir(listing *dirListing) *DirResult {
	result := &DirResult{Dir: listing.Dir}
	manifestPath := r.ManifestPath(listing.Dir)

	existing, err := LoadManifest(manifestPath, func(le *LineError) {
		result.Malformed++
		r.Logger.Error("invalid syntax in checksum file",
			"path", le.Path, "line", le.Line, "text", le.Text)
	})
	if err != nil {
		// without the old digests every file would look new; leave the directory alone
		r.Logger.Error("error reading checksums file", "path", manifestPath, "error", err)
		result.Errors = append(result.Errors, err)
		return result
	}
	if !existing.IsEmpty() {
		r.Logger.Debug("found existing checksums", "dir", listing.Dir, "entries", existing.Len())
	}

	state := &DirectoryState{
		Dir:      listing.Dir,
		Existing: existing,
		New:      NewEntrySet(),
	}

	r.pruneMissing(state, listing, result)
	r.hashFiles(state, listing, result)

	if err := state.Existing.Merge(state.New); err != nil {
		r.Logger.Error("internal error merging entries", "dir", listing.Dir, "error", err)
		result.Errors = append(result.Errors, err)
		result.Write = WriteFailed
		return result
	}

	result.Updated = state.Updated
	if !state.Updated {
		return result
	}

	r.writeManifest(manifestPath, state.Existing, result)
	return result
}

// pruneMissing drops every manifest entry whose file is gone.
func (r *Reconciler) pruneMissing(state *DirectoryState, listing *dirListing, result *DirResult) {
	for _, entry := range state.Existing.Entries() {
		switch {
		case entry.Name == r.Outfile:
			r.Logger.Debug("dropping self reference from checksums file", "dir", listing.Dir)
			state.Existing.Delete(entry.Name)
			state.Updated = true
			continue
		case listing.HasFile(entry.Name), listing.IsExcluded(entry.Name):
			continue
		case strings.ContainsRune(entry.Name, filepath.Separator) && isRegularFile(filepath.Join(listing.Dir, entry.Name)):
			r.Logger.Debug("carrying forward entry outside directory", "dir", listing.Dir, "name", entry.Name)
			continue
		}

		state.Existing.Delete(entry.Name)
		state.Updated = true
		r.Verdict.Fail()
		result.Missing = append(result.Missing, entry.Name)
		r.Logger.Warn("missing a file",
			"path", filepath.Join(listing.Dir, entry.Name), "hash", entry.Digest)
	}
}

// hashFiles hashes every file in the listing and sorts it into the state.
func (r *Reconciler) hashFiles(state *DirectoryState, listing *dirListing, result *DirResult) {
	for _, name := range listing.Files {
		fullPath := filepath.Join(listing.Dir, name)

		digest, err := r.hashFile(fullPath)
		if err != nil {
			r.Logger.Error("error opening file", "path", fullPath, "error", err)
			result.Unreadable = append(result.Unreadable, name)
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Hashed++
		r.Logger.Debug("hashed file", "path", fullPath, "hash", digest)

		oldDigest, _, known := state.Existing.Get(name)
		switch {
		case !known:
			state.New.Put(name, digest, NewContext)
			state.Updated = true
			result.Added = append(result.Added, name)
			r.Logger.Info("new file", "path", fullPath, "hash", digest)
		case oldDigest != digest:
			state.Existing.Put(name, digest, ExistingContext)
			state.Updated = true
			r.Verdict.Fail()
			result.Mismatched = append(result.Mismatched, Mismatch{Name: name, OldDigest: oldDigest, NewDigest: digest})
			r.Logger.Warn("inconsistent hashes detected",
				"path", fullPath, "old", oldDigest, "new", digest)
		}
	}
}

func (r *Reconciler) writeManifest(manifestPath string, merged *EntrySet, result *DirResult) {
	if r.DryRun {
		result.Write = WriteDryRun
		r.Logger.Info("dry run, not updating checksums file", "path", manifestPath, "entries", merged.Len())
		return
	}

	if merged.IsEmpty() {
		if err := RemoveManifest(manifestPath); err != nil {
			r.Logger.Error("error removing checksums file", "path", manifestPath, "error", err)
			result.Errors = append(result.Errors, err)
			result.Write = WriteFailed
			return
		}
		result.Write = WriteRemoved
		r.Logger.Info("removed empty checksums file", "path", manifestPath)
		return
	}

	if err := WriteManifest(manifestPath, merged); err != nil {
		r.Logger.Error("error writing checksums file", "path", manifestPath, "error", err)
		result.Errors = append(result.Errors, err)
		result.Write = WriteFailed
		return
	}
	result.Write = WriteWritten
	r.Logger.Info("updated checksums file", "path", manifestPath, "entries", merged.Len())
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// isTempManifest reports whether name is a temporary file left by WriteManifest.
func isTempManifest(name, outfile string) bool {
	return strings.HasPrefix(name, "."+outfile+".tmp-")
}
