package fileutil

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// ErrNotWritable indicates a destination directory that is missing, not a
// directory, or lacks write permission for the current process.
var ErrNotWritable = errors.New("directory not writable")

// WriteResult describes a file produced by WriteFileAtomic.
type WriteResult struct {
	Path   string
	Size   int64
	SHA256 string
}

// CheckWritableDir verifies dir exists, is a directory, and is writable and
// searchable by the current process.
func CheckWritableDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotWritable, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrNotWritable, dir)
	}
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotWritable, dir, err)
	}
	return nil
}

// WriteFileAtomic streams content produced by write into a temporary file next
// to path and renames it into place once fully written and synced. On any
// failure the temporary file is removed and path is left untouched.
func WriteFileAtomic(path string, mode os.FileMode, write func(io.Writer) error) (WriteResult, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return WriteResult{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	hasher := sha256.New()
	counter := &countingWriter{}
	buffered := bufio.NewWriter(io.MultiWriter(tmp, hasher, counter))

	if err := write(buffered); err != nil {
		return WriteResult{}, err
	}
	if err := buffered.Flush(); err != nil {
		return WriteResult{}, fmt.Errorf("flush %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return WriteResult{}, fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return WriteResult{}, fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return WriteResult{}, fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return WriteResult{}, fmt.Errorf("rename into place: %w", err)
	}
	committed = true

	return WriteResult{
		Path:   path,
		Size:   counter.n,
		SHA256: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// AvailablePath returns dir/base+ext, or the first of dir/base-1+ext,
// dir/base-2+ext, ... that does not exist yet.
func AvailablePath(dir, base, ext string) (string, error) {
	candidate := filepath.Join(dir, base+ext)
	for i := 1; ; i++ {
		_, err := os.Lstat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		candidate = filepath.Join(dir, base+"-"+strconv.Itoa(i)+ext)
	}
}

type countingWriter struct {
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}
