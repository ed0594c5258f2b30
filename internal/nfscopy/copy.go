// Package nfscopy copies files with the paranoia NFS requires: an explicit
// fsync before trusting the write, then existence and size verification.
package nfscopy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// pause between files so a slow NFS server isn't flooded with writes.
const copyInterval = 50 * time.Millisecond

// CopyFile copies src into destDir, fsyncs the result and verifies it.
// Returns the destination path.
func CopyFile(src, destDir string) (string, error) {
	dest := filepath.Join(destDir, filepath.Base(src))

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("copy failed: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("fsync failed: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return "", err
	}

	if err := Verify(dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Verify confirms a written file exists and is non-empty. An empty file is
// removed: on NFS a zero-size entry can linger after a failed write.
func Verify(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("file does not exist after write: %s", path)
	}
	if info.Size() == 0 {
		os.Remove(path)
		return fmt.Errorf("write created empty file: %s", path)
	}
	return nil
}

// SyncFile fsyncs an already-written file and verifies it.
func SyncFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("fsync failed: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return Verify(path)
}

// CopyDir copies every regular file in srcDir (subdirectories like logs/
// are skipped) into destDir. Failures are logged per file and counted, not
// fatal. Returns (copied, failed).
func CopyDir(logger zerolog.Logger, srcDir, destDir string) (int, int, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return 0, 0, err
	}

	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return 0, 0, err
	}

	copied, failed := 0, 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		src := filepath.Join(srcDir, entry.Name())
		if _, err := CopyFile(src, destDir); err != nil {
			logger.Error().Err(err).Str("file", entry.Name()).Msg("copy failed")
			failed++
		} else {
			logger.Debug().Str("file", entry.Name()).Msg("copied")
			copied++
		}
		time.Sleep(copyInterval)
	}

	return copied, failed, nil
}
