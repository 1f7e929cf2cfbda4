package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	md5verify "github.com/mattkeenan/md5verify/pkg"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

// Exit codes
const (
	exitConsistent   = 0 // every manifest matched and nothing failed
	exitInconsistent = 1 // missing files, changed files or processing errors
	exitUsage        = 2 // bad invocation, nothing was touched
)

type options struct {
	outfile    string
	verbose    int
	configPath string
	exclude    []string
	dryRun     bool
}

// usageError marks problems with the invocation itself.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// exitError carries the exit code of a run that completed.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	ctx, cancel := setupSignalHandler(stderr)
	defer cancel()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)

	var ue *usageError
	if errors.As(err, &ue) {
		md5verify.Critical(md5verify.NewLogger(stderr, 0), ue.Error())
		fmt.Fprint(stderr, cmd.UsageString())
	}
	return exitCode(err)
}

func exitCode(err error) int {
	var ee *exitError
	var ue *usageError
	switch {
	case err == nil:
		return exitConsistent
	case errors.As(err, &ee):
		return ee.code
	case errors.As(err, &ue):
		return exitUsage
	default:
		return exitInconsistent
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "md5verify [flags] <directory>",
		Short: "Verify directory trees against md5sum-compatible checksum files",
		Long: `md5verify walks a directory tree and keeps an md5sum-compatible checksum
file in every directory. The first run records the MD5 digest of every file;
later runs check each file against the recorded digest, record new files and
report files that are missing or whose content changed.

Exit status is 0 when everything matched, 1 when an inconsistency or a
processing error was found and 2 when the invocation was invalid.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return &usageError{errors.New("you need to specify the directory to process")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, args[0], opts)
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	flags := cmd.Flags()
	flags.StringVarP(&opts.outfile, "outfile", "o", md5verify.DefaultOutfile, "name of the checksum file kept in every directory")
	flags.CountVarP(&opts.verbose, "verbose", "v", "print more output (up to -v -v)")
	flags.StringVarP(&opts.configPath, "config", "c", "", "ini config file")
	flags.StringArrayVarP(&opts.exclude, "exclude", "x", nil, "glob pattern of files and directories to skip (repeatable)")
	flags.BoolVarP(&opts.dryRun, "dry-run", "n", false, "report findings without writing checksum files")

	return cmd
}

func runVerify(cmd *cobra.Command, root string, opts *options) error {
	cfg, err := md5verify.LoadConfig(opts.configPath)
	if err != nil {
		return &usageError{err}
	}
	if err := applyFlags(cmd, cfg, opts); err != nil {
		return &usageError{err}
	}
	if err := cfg.Validate(); err != nil {
		return &usageError{err}
	}

	logger := md5verify.NewLogger(cmd.ErrOrStderr(), cfg.GetVerboseConfig().Level)
	if cfg.Path() != "" {
		logger.Debug("loaded configuration", "path", cfg.Path())
	}

	runOpts := md5verify.OptionsFromConfig(cfg, logger)
	runOpts.Exclude = append(runOpts.Exclude, opts.exclude...)

	result, err := md5verify.Run(cmd.Context(), root, runOpts)
	switch {
	case errors.Is(err, md5verify.ErrNotDirectory), errors.Is(err, md5verify.ErrInvalidOptions):
		return &usageError{err}
	case err != nil:
		logger.Error("run aborted", "error", err)
		return &exitError{code: exitInconsistent}
	}

	if !result.Consistent || result.HasErrors() {
		return &exitError{code: exitInconsistent}
	}
	return nil
}

// applyFlags copies the flags given on the command line over the config values.
func applyFlags(cmd *cobra.Command, cfg *md5verify.Config, opts *options) error {
	flags := cmd.Flags()
	overrides := []struct {
		flag, section, key, value string
	}{
		{"outfile", "manifest", "outfile", opts.outfile},
		{"verbose", "verbose", "level", strconv.Itoa(opts.verbose)},
		{"dry-run", "walk", "dry_run", strconv.FormatBool(opts.dryRun)},
	}

	for _, o := range overrides {
		if !flags.Changed(o.flag) {
			continue
		}
		if err := cfg.Set(o.section, o.key, o.value); err != nil {
			return fmt.Errorf("failed to apply --%s: %w", o.flag, err)
		}
	}
	return nil
}
