package platform

import (
	"io/fs"
	"os"
	"time"
)

// Info is the metadata the walker needs for a single entry.
type Info struct {
	// Size is the logical length in bytes.
	Size int64
	// Blocks is the allocated size in bytes.
	Blocks int64
	// Dev identifies the filesystem holding the entry.
	Dev uint64
	// Inode is the inode number.
	Inode uint64
	// Links is the number of hard links.
	Links uint64
	// Mode holds the type and permission bits.
	Mode fs.FileMode
	// ModTime is the last modification time.
	ModTime time.Time
	// AccessTime is the last access time.
	AccessTime time.Time
	// ChangeTime is the last status change time.
	ChangeTime time.Time
}

// ApparentSize returns the logical byte length.
func (i Info) ApparentSize() uint64 {
	return clamp(i.Size)
}

// DiskSize returns the allocated byte count.
func (i Info) DiskSize() uint64 {
	return clamp(i.Blocks)
}

// FilesystemID returns the opaque identifier of the filesystem.
func (i Info) FilesystemID() uint64 {
	return i.Dev
}

// IsDir reports whether the entry is a directory.
func (i Info) IsDir() bool {
	return i.Mode.IsDir()
}

// IsSymlink reports whether the entry is a symbolic link.
func (i Info) IsSymlink() bool {
	return i.Mode&fs.ModeSymlink != 0
}

func clamp(v int64) uint64 {
	if v < 0 {
		return 0
	}

	return uint64(v)
}

// Prober reads entry metadata and directory listings.
type Prober interface {
	// Lstat describes path without following a final symlink.
	Lstat(path string) (Info, error)
	// Stat describes path, following symlinks.
	Stat(path string) (Info, error)
	// ReadDir lists the names in a directory. On error it returns the
	// names read so far together with the error.
	ReadDir(path string) ([]string, error)
}

// OS probes the local filesystem.
type OS struct{}

// ReadDir lists the entry names of path.
func (OS) ReadDir(path string) ([]string, error) {
	dir, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	return dir.Readdirnames(-1)
}
