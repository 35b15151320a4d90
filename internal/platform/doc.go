// Package platform measures filesystem entries: apparent size, allocated
// size, filesystem identity and timestamps. It also discovers pseudo
// filesystems that a disk usage walk should usually not descend into.
package platform
