// Package md5verify walks a directory tree, hashes every file with MD5 and keeps
// the digests in an md5sum-compatible manifest stored in each directory. Later
// runs compare the tree against those manifests and report files that went
// missing or whose content changed.
//
// # Core API
//
// The main entry point is Run, which performs one full pass over a tree:
//
//	logger := md5verify.NewLogger(os.Stderr, 1)
//	result, err := md5verify.Run(ctx, "/srv/photos", md5verify.Options{
//		Outfile: md5verify.DefaultOutfile,
//		Logger:  logger,
//	})
//	if err != nil {
//		return err
//	}
//	if !result.Consistent {
//		fmt.Println("integrity problems found")
//	}
//
// # Manifest format
//
// Each directory gets one manifest (checksums.txt by default) with one line per
// file:
//
//	d41d8cd98f00b204e9800998ecf8427e  empty.txt
//	\0cc175b9c0f1b6a831c399e269772661  back\\slash
//
// A leading backslash marks a line whose filename was escaped: backslash is
// written as "\\" and newline as a backslash followed by the newline. Files
// written by `md5sum` in binary mode (" *" separator) are read as well, but
// manifests are always written in text mode.
//
// The manifest of a directory is only rewritten when something in that
// directory changed, so an unchanged tree produces no writes at all.
//
// # Concurrency
//
// A run is single threaded. Running two passes over the same tree at the same
// time is not supported: both would read, modify and replace the same manifest
// files with no coordination. Callers that schedule runs (cron, systemd timers)
// must serialise them.
package md5verify
