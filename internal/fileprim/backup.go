package fileprim

import (
	"fmt"
	"os"
)

// CreateBackup copies path to path.<extension>, returning ErrFileNotFound
// when the original is missing. For a symbolic-link target, ownership is
// copied via Lchown rather than Chown (spec.md §4.8).
func CreateBackup(path, extension string) error {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	dstPath := path + "." + extension
	dst, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer dst.Close()

	if err := copyStream(dst, src); err != nil {
		return err
	}

	if lstat, err := os.Lstat(path); err == nil && lstat.Mode()&os.ModeSymlink != 0 {
		if stat, ok := lstatOwner(lstat); ok {
			return os.Lchown(dstPath, stat.uid, stat.gid)
		}
	}
	return nil
}
