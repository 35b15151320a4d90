//go:build !linux

package platform

import (
	"io/fs"
	"os"
)

// fallbackBlock approximates allocation where st_blocks is not available.
const fallbackBlock = 4096

// Lstat describes path without following a final symlink.
func (OS) Lstat(path string) (Info, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return Info{}, err
	}

	return fromFileInfo(fi), nil
}

// Stat describes path, following symlinks.
func (OS) Stat(path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}

	return fromFileInfo(fi), nil
}

func fromFileInfo(fi fs.FileInfo) Info {
	blocks := (fi.Size() + fallbackBlock - 1) / fallbackBlock * fallbackBlock

	return Info{
		Size:       fi.Size(),
		Blocks:     blocks,
		Links:      1,
		Mode:       fi.Mode(),
		ModTime:    fi.ModTime(),
		AccessTime: fi.ModTime(),
		ChangeTime: fi.ModTime(),
	}
}
