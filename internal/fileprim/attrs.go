package fileprim

import (
	"os"
	"os/user"
	"strconv"
	"syscall"

	"github.com/nodeforge/ember/internal/resource"
)

// ApplyAttributes applies mode/owner/group to path, always mode-before-owner
// to preserve setuid intent, then owner+group in a single chown call to
// minimize races (spec.md §9 "File-attribute application order").
func ApplyAttributes(path string, attrs resource.Attributes) error {
	if attrs.Mode != nil {
		if err := os.Chmod(path, os.FileMode(*attrs.Mode&0o7777)); err != nil {
			return err
		}
	}
	if attrs.Owner == nil && attrs.Group == nil {
		return nil
	}

	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		// Non-POSIX platform: mode already applied, chown has no
		// meaning here. Tolerated per spec.md §4.8.
		return nil
	}
	uid, gid := int(stat.Uid), int(stat.Gid)

	if attrs.Owner != nil {
		u, err := user.Lookup(*attrs.Owner)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(u.Uid)
		if err != nil {
			return err
		}
		uid = n
	}
	if attrs.Group != nil {
		g, err := user.LookupGroup(*attrs.Group)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(g.Gid)
		if err != nil {
			return err
		}
		gid = n
	}
	return os.Chown(path, uid, gid)
}
