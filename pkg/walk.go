package md5verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
)

// errNotRegular marks directory entries that cannot be hashed.
var errNotRegular = errors.New("not a regular file")

// dirListing is the classified content of one directory.
type dirListing struct {
	Dir     string   // directory path composed from the walk root
	RelDir  string   // slash separated path relative to the walk root
	Files   []string // hashable files, sorted by name
	Subdirs []string // directories to descend into, sorted by name

	files    map[string]bool
	excluded map[string]bool
}

// HasFile reports whether name is a hashable file of the directory.
func (l *dirListing) HasFile(name string) bool {
	return l.files[name]
}

// IsExcluded reports whether name exists in the directory but was excluded.
func (l *dirListing) IsExcluded(name string) bool {
	return l.excluded[name]
}

// Walker visits a tree top-down, reconciling every directory exactly once.
type Walker struct {
	Root       string
	Outfile    string
	Exclude    *ExcludeMatcher
	Reconciler *Reconciler
	Logger     *slog.Logger

	// Visit is called with the result of every directory, including ones
	// that could not be listed.
	Visit func(*DirResult)
}

// Walk processes the whole tree. It only returns an error when ctx is
// cancelled; problems with single files or directories are logged and
// reported through Visit.
func (w *Walker) Walk(ctx context.Context) error {
	return w.walkDir(ctx, w.Root, ".")
}

func (w *Walker) walkDir(ctx context.Context, dir, relDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.Logger.Info("operating on directory", "dir", dir)

	listing, err := w.listDirectory(dir, relDir)
	if err != nil {
		w.Logger.Error("error reading directory", "dir", dir, "error", err)
		w.visit(&DirResult{Dir: dir, Errors: []error{err}})
		return nil
	}

	w.visit(w.Reconciler.ReconcileDir(listing))

	for _, sub := range listing.Subdirs {
		if err := w.walkDir(ctx, filepath.Join(dir, sub), path.Join(relDir, sub)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) visit(result *DirResult) {
	if w.Visit != nil {
		w.Visit(result)
	}
}

// listDirectory reads dir and sorts its entries into files to hash and
// subdirectories to descend into. The manifest and its temporary files are
// never listed as files.
func (w *Walker) listDirectory(dir, relDir string) (*dirListing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	listing := &dirListing{
		Dir:      dir,
		RelDir:   relDir,
		files:    make(map[string]bool),
		excluded: make(map[string]bool),
	}

	for _, entry := range entries {
		name := entry.Name()
		relPath := path.Join(relDir, name)

		isFile, isDir, err := classify(dir, entry)
		switch {
		case isDir:
			if w.Exclude.ShouldExclude(relPath) {
				w.Logger.Debug("skipping excluded directory", "path", relPath)
				continue
			}
			listing.Subdirs = append(listing.Subdirs, name)
			continue
		case !isFile:
			w.Logger.Debug("skipping entry", "path", filepath.Join(dir, name), "reason", err)
			continue
		}

		if name == w.Outfile || isTempManifest(name, w.Outfile) {
			continue
		}
		if w.Exclude.ShouldExclude(relPath) {
			w.Logger.Debug("skipping excluded file", "path", relPath)
			listing.excluded[name] = true
			continue
		}

		listing.Files = append(listing.Files, name)
		listing.files[name] = true
	}

	return listing, nil
}

// classify reports whether entry is a file to hash or a directory to descend
// into. Symlinks to regular files count as files; symlinked directories are
// not followed.
func classify(dir string, entry os.DirEntry) (isFile, isDir bool, err error) {
	mode := entry.Type()
	switch {
	case mode.IsRegular():
		return true, false, nil
	case mode.IsDir():
		return false, true, nil
	case mode&os.ModeSymlink != 0:
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			return false, false, fmt.Errorf("broken symlink: %w", err)
		}
		if info.Mode().IsRegular() {
			return true, false, nil
		}
		return false, false, errNotRegular
	default:
		return false, false, errNotRegular
	}
}
