package platform

import (
	"context"
	"fmt"
	"slices"

	"github.com/shirou/gopsutil/v4/disk"
)

// PseudoFilesystems lists filesystem types that hold no on-disk data.
//
//nolint:gochecknoglobals // Lookup table
var PseudoFilesystems = []string{
	"proc", "sysfs", "devtmpfs", "devpts", "tmpfs", "cgroup", "cgroup2",
	"securityfs", "debugfs", "tracefs", "pstore", "bpf", "configfs",
	"fusectl", "mqueue", "hugetlbfs", "autofs", "binfmt_misc", "squashfs",
}

// PseudoMounts returns the mount points of pseudo filesystems.
func PseudoMounts(ctx context.Context) ([]string, error) {
	partitions, err := disk.PartitionsWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("listing partitions: %w", err)
	}

	return pseudoMountpoints(partitions), nil
}

func pseudoMountpoints(partitions []disk.PartitionStat) []string {
	var mounts []string

	for _, p := range partitions {
		if !slices.Contains(PseudoFilesystems, p.Fstype) {
			continue
		}

		if p.Mountpoint == "/" || slices.Contains(mounts, p.Mountpoint) {
			continue
		}

		mounts = append(mounts, p.Mountpoint)
	}

	return mounts
}
