package md5verify

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/google/vectorio"
	"golang.org/x/sys/unix"
)

var tempSequence atomic.Uint64

// WriteManifest replaces the manifest at path with the entries of set. The
// lines are written to a temporary file in the same directory which is then
// renamed over path, so readers see either the old or the new manifest. An
// empty set removes the manifest instead of leaving an empty file behind.
func WriteManifest(path string, set *EntrySet) error {
	if set.IsEmpty() {
		return RemoveManifest(path)
	}

	dir := filepath.Dir(path)
	tempPath := filepath.Join(dir, generateTempFileName(filepath.Base(path)))

	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		return fmt.Errorf("failed to create temp manifest %s: %w", tempPath, err)
	}

	committed := false
	defer func() {
		if !committed {
			file.Close()
			os.Remove(tempPath)
		}
	}()

	if err := writeLinesWithVectorIO(file, set.Lines()); err != nil {
		return fmt.Errorf("failed to write temp manifest %s: %w", tempPath, err)
	}

	if err := unix.Fdatasync(int(file.Fd())); err != nil {
		return fmt.Errorf("failed to sync temp manifest %s: %w", tempPath, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close temp manifest %s: %w", tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		committed = true
		return fmt.Errorf("failed to replace manifest %s: %w", path, err)
	}
	committed = true

	return syncDir(dir)
}

// RemoveManifest deletes the manifest at path. A manifest that does not exist
// is not an error.
func RemoveManifest(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to remove manifest %s: %w", path, err)
	}
	return syncDir(filepath.Dir(path))
}

// writeLinesWithVectorIO writes lines with writev, splitting the vector so no
// single call exceeds maxIovecs buffers.
func writeLinesWithVectorIO(file *os.File, lines [][]byte) error {
	iovecs := make([]syscall.Iovec, 0, len(lines))
	totalSize := 0
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		iovec := syscall.Iovec{Base: &line[0]}
		iovec.SetLen(len(line))
		iovecs = append(iovecs, iovec)
		totalSize += len(line)
	}

	totalWritten := 0
	for offset := 0; offset < len(iovecs); offset += maxIovecs {
		end := min(offset+maxIovecs, len(iovecs))

		nw, err := vectorio.WritevRaw(uintptr(file.Fd()), iovecs[offset:end])
		if err != nil {
			return fmt.Errorf("failed to write manifest lines with vectorio: %w", err)
		}
		totalWritten += nw
	}

	if totalWritten != totalSize {
		return fmt.Errorf("manifest write incomplete: wrote %d bytes, expected %d", totalWritten, totalSize)
	}
	return nil
}

// generateTempFileName returns a hidden per-process name for a manifest being written.
func generateTempFileName(outfile string) string {
	return fmt.Sprintf(TempManifest, outfile, os.Getpid(), tempSequence.Add(1))
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open directory %s: %w", dir, err)
	}
	defer d.Close()

	if err := unix.Fsync(int(d.Fd())); err != nil {
		return fmt.Errorf("failed to sync directory %s: %w", dir, err)
	}
	return nil
}
