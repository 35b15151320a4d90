//go:build linux

package platform

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

// blockUnit is the unit of st_blocks.
const blockUnit = 512

// Lstat describes path without following a final symlink.
func (OS) Lstat(path string) (Info, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return Info{}, &fs.PathError{Op: "lstat", Path: path, Err: err}
	}

	return fromStat(&st), nil
}

// Stat describes path, following symlinks.
func (OS) Stat(path string) (Info, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return Info{}, &fs.PathError{Op: "stat", Path: path, Err: err}
	}

	return fromStat(&st), nil
}

//nolint:unconvert // Field widths differ between architectures
func fromStat(st *unix.Stat_t) Info {
	return Info{
		Size:       st.Size,
		Blocks:     int64(st.Blocks) * blockUnit,
		Dev:        uint64(st.Dev),
		Inode:      uint64(st.Ino),
		Links:      uint64(st.Nlink),
		Mode:       fileMode(uint32(st.Mode)),
		ModTime:    time.Unix(st.Mtim.Unix()),
		AccessTime: time.Unix(st.Atim.Unix()),
		ChangeTime: time.Unix(st.Ctim.Unix()),
	}
}

func fileMode(mode uint32) fs.FileMode {
	perm := fs.FileMode(mode & 0o777)

	switch mode & unix.S_IFMT {
	case unix.S_IFDIR:
		return perm | fs.ModeDir
	case unix.S_IFLNK:
		return perm | fs.ModeSymlink
	case unix.S_IFREG:
		return perm
	case unix.S_IFIFO:
		return perm | fs.ModeNamedPipe
	case unix.S_IFSOCK:
		return perm | fs.ModeSocket
	case unix.S_IFCHR:
		return perm | fs.ModeDevice | fs.ModeCharDevice
	case unix.S_IFBLK:
		return perm | fs.ModeDevice
	default:
		return perm | fs.ModeIrregular
	}
}
