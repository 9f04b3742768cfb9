// Package fileprim implements the shared file-mutation primitives every
// file-producing resource relies on (spec.md §4.8 / C8): atomic write,
// content-equivalence idempotence, attribute application, and parent
// directory creation. This is the universal idempotence mechanism of the
// engine — every provider that writes a path routes through WriteAtomic
// so that unchanged declarations report WasUpdated=false and therefore
// never arm notifications.
package fileprim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nodeforge/ember/internal/resource"
)

// ErrFileNotFound is returned by ReadAll/CreateBackup when the path
// doesn't exist.
var ErrFileNotFound = errors.New("fileprim: file not found")

// EnsureParentDir creates path's missing parent directories. Idempotent;
// fails only on permission errors or a non-directory already occupying
// a parent path segment.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// EnsurePathAsDir creates path as a directory, including all parents.
// An existing directory at path is success (PathAlreadyExists, per
// spec.md §4.8); an existing non-directory is an error.
func EnsurePathAsDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("fileprim: %s exists and is not a directory", path)
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(path, 0o755)
}

// ReadAll reads path's full contents, returning ErrFileNotFound (wrapped)
// when it doesn't exist.
func ReadAll(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}
	return b, nil
}

// WriteAtomic implements spec.md §4.8's write_atomic contract exactly:
//
//   - If path exists with byte-identical content and (when attrs.Mode is
//     set) matching low-9-bit mode, nothing is touched and WasUpdated is
//     false. If only the mode differs, the mode is applied in place and
//     WasUpdated is true.
//   - Otherwise content is written to a sibling temp file, fsynced,
//     closed, then renamed atomically over path; attrs are applied after
//     rename; WasUpdated is true. The temp file is removed on any error.
func WriteAtomic(path string, content []byte, attrs resource.Attributes) (wasUpdated bool, err error) {
	existing, statErr := os.Stat(path)
	if statErr == nil && !existing.IsDir() {
		current, readErr := os.ReadFile(path)
		if readErr == nil && bytes.Equal(current, content) {
			if attrs.Mode == nil {
				return false, nil
			}
			if existing.Mode().Perm() == os.FileMode(*attrs.Mode&0o777) {
				return false, nil
			}
			if err := ApplyAttributes(path, resource.Attributes{Mode: attrs.Mode}); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	dir := filepath.Dir(path)
	if err := EnsureParentDir(path); err != nil {
		return false, err
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".%s-%d-%d", filepath.Base(path), time.Now().UnixNano(), os.Getpid()))

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return false, err
	}
	cleanup := func() { _ = os.Remove(tmp) }

	if _, err := f.Write(content); err != nil {
		f.Close()
		cleanup()
		return false, err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		cleanup()
		return false, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return false, err
	}
	if err := os.Rename(tmp, path); err != nil {
		cleanup()
		return false, err
	}
	if !attrs.IsZero() {
		if err := ApplyAttributes(path, attrs); err != nil {
			return true, err
		}
	}
	return true, nil
}

// copyStream is a small helper used by CreateBackup: io.Copy with the
// byte count discarded.
func copyStream(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	return err
}
