package tree

import (
	"fmt"
	"time"
)

// Kind identifies the metric a walk measures. Exactly one kind is active per walk.
type Kind uint8

const (
	// Disk is the allocated size in bytes, rounded to the filesystem block size.
	Disk Kind = iota
	// Apparent is the logical byte length of a file.
	Apparent
	// Count is the number of files.
	Count
	// Time is a unix timestamp in seconds.
	Time
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case Disk:
		return "disk"
	case Apparent:
		return "apparent"
	case Count:
		return "count"
	case Time:
		return "time"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Combine aggregates two values of this kind.
// Byte and count kinds add up, timestamps keep the latest.
func (k Kind) Combine(a, b uint64) uint64 {
	if k == Time {
		return max(a, b)
	}

	return a + b
}

// Size is a tagged metric value.
type Size struct {
	Kind  Kind   `json:"kind"`
	Value uint64 `json:"value"`
}

// Zero returns the empty value of kind k.
func Zero(k Kind) Size {
	return Size{Kind: k}
}

// Of returns a value of kind k.
func Of(k Kind, v uint64) Size {
	return Size{Kind: k, Value: v}
}

// Add combines s with other according to the active kind.
// Mixing kinds is a programming error and panics.
func (s Size) Add(other Size) Size {
	if s.Kind != other.Kind {
		panic(fmt.Sprintf("tree: combining %s size with %s size", s.Kind, other.Kind))
	}

	return Size{Kind: s.Kind, Value: s.Kind.Combine(s.Value, other.Value)}
}

// IsZero reports whether the value is zero.
func (s Size) IsZero() bool {
	return s.Value == 0
}

// Timestamp interprets the value as a unix timestamp.
func (s Size) Timestamp() time.Time {
	return time.Unix(int64(s.Value), 0) //nolint:gosec // Timestamps fit in int64
}
