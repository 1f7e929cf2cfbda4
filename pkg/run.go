package md5verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

var (
	// ErrNotDirectory is returned when the root of a run is not a directory.
	ErrNotDirectory = errors.New("not a directory")
	// ErrInvalidOptions is returned when run options cannot be used.
	ErrInvalidOptions = errors.New("invalid options")
)

// Options configures a run.
type Options struct {
	Outfile string   // manifest filename, DefaultOutfile when empty
	Exclude []string // glob patterns to skip
	DryRun  bool     // report findings without writing manifests
	Logger  *slog.Logger
}

// OptionsFromConfig builds run options from cfg.
func OptionsFromConfig(cfg *Config, logger *slog.Logger) Options {
	all := cfg.GetAllConfig()
	return Options{
		Outfile: all.Manifest.Outfile,
		Exclude: all.Walk.Exclude,
		DryRun:  all.Walk.DryRun,
		Logger:  logger,
	}
}

// Result is the outcome of a run.
type Result struct {
	Consistent bool         // no missing files and no digest mismatches
	Stats      Stats        // totals over all directories
	Dirs       []*DirResult // per directory results in visiting order
}

// HasErrors returns true if any file or directory could not be processed.
func (r *Result) HasErrors() bool {
	return r.Stats.Errors > 0
}

// ValidateRoot checks that root names an existing directory.
func ValidateRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s is %w", root, ErrNotDirectory)
	}
	return nil
}

// Run verifies and updates the manifests of every directory below root. The
// returned error is non-nil when the options or root are invalid, in which
// case nothing was touched, or when ctx was cancelled part way through, in
// which case the partial result is returned as well.
func Run(ctx context.Context, root string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	outfile := opts.Outfile
	if outfile == "" {
		outfile = DefaultOutfile
	}
	if err := ValidateOutfile(outfile); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	exclude, err := NewExcludeMatcher(opts.Exclude)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	if err := ValidateRoot(root); err != nil {
		return nil, err
	}

	verdict := &Verdict{}
	reconciler := NewReconciler(outfile, logger, verdict)
	reconciler.DryRun = opts.DryRun

	result := &Result{}
	walker := &Walker{
		Root:       root,
		Outfile:    outfile,
		Exclude:    exclude,
		Reconciler: reconciler,
		Logger:     logger,
		Visit: func(dr *DirResult) {
			result.Stats.add(dr)
			result.Dirs = append(result.Dirs, dr)
		},
	}

	walkErr := walker.Walk(ctx)
	result.Consistent = verdict.Consistent()

	logger.Info("run complete",
		"root", root,
		"consistent", result.Consistent,
		"directories", result.Stats.Directories,
		"hashed", result.Stats.FilesHashed,
		"added", result.Stats.FilesAdded,
		"missing", result.Stats.FilesMissing,
		"mismatched", result.Stats.Mismatches,
		"written", result.Stats.ManifestsWritten,
		"removed", result.Stats.ManifestsRemoved,
		"errors", result.Stats.Errors)

	if walkErr != nil {
		return result, fmt.Errorf("run interrupted: %w", walkErr)
	}
	return result, nil
}
