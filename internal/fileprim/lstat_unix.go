package fileprim

import (
	"os"
	"syscall"
)

type ownerIDs struct {
	uid int
	gid int
}

func lstatOwner(info os.FileInfo) (ownerIDs, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return ownerIDs{}, false
	}
	return ownerIDs{uid: int(stat.Uid), gid: int(stat.Gid)}, true
}
