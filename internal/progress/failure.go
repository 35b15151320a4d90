package progress

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrSymlinkCycle marks a followed symlink that leads back into a directory
	// already being walked.
	ErrSymlinkCycle = errors.New("symlink cycle")
	// ErrDuplicateTarget marks a directory that was already counted through
	// another path.
	ErrDuplicateTarget = errors.New("already counted")
)

// Reason classifies a recoverable walk failure.
type Reason uint8

const (
	// Unknown is any failure without a more specific reason.
	Unknown Reason = iota
	// Permission means access was denied.
	Permission
	// NotFound means the entry vanished during the walk.
	NotFound
	// Metadata means the entry's metadata could not be read.
	Metadata
	// ReadDir means a directory listing failed.
	ReadDir
	// Cycle means a followed symlink was refused to avoid a loop.
	Cycle
	// Duplicate means a directory reached again through a followed symlink was
	// left out so it is counted once.
	Duplicate
)

// String returns a short description of the reason.
func (r Reason) String() string {
	switch r {
	case Permission:
		return "permission denied"
	case NotFound:
		return "not found"
	case Metadata:
		return "unreadable metadata"
	case ReadDir:
		return "unreadable directory"
	case Cycle:
		return "symlink cycle"
	case Duplicate:
		return "duplicate link target"
	default:
		return "unknown error"
	}
}

// MarshalText encodes the reason as its description.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Failure is a recoverable error for a single path.
type Failure struct {
	// Path is the entry that failed.
	Path string `json:"path"`
	// Reason classifies the failure.
	Reason Reason `json:"reason"`
	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements error.
func (f Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Path, f.Reason)
	}

	// The sentinel of the reason already names it.
	if sentinel := f.Reason.sentinel(); sentinel != nil && errors.Is(f.Err, sentinel) {
		return fmt.Sprintf("%s: %v", f.Path, f.Err)
	}

	return fmt.Sprintf("%s: %s: %v", f.Path, f.Reason, f.Err)
}

// Unwrap returns the underlying error.
func (f Failure) Unwrap() error {
	return f.Err
}

func (r Reason) sentinel() error {
	switch r {
	case Cycle:
		return ErrSymlinkCycle
	case Duplicate:
		return ErrDuplicateTarget
	default:
		return nil
	}
}

// Classify derives a failure for path from err. fallback is used when the
// error carries no more specific cause.
func Classify(path string, err error, fallback Reason) Failure {
	reason := fallback

	switch {
	case errors.Is(err, ErrSymlinkCycle):
		reason = Cycle
	case errors.Is(err, ErrDuplicateTarget):
		reason = Duplicate
	case errors.Is(err, fs.ErrPermission):
		reason = Permission
	case errors.Is(err, fs.ErrNotExist):
		reason = NotFound
	}

	return Failure{Path: path, Reason: reason, Err: err}
}
