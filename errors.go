// Package minifs implements a simulated Unix-style file system: a fixed-size
// volume image holding a superblock, an inode table, and a free-list managed
// data block region. The volume and fs subpackages contain the on-disk codecs
// and the file system operations; this package defines the error surface they
// share.
package minifs

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Error is the interface implemented by every error this module returns.
// Errors compare with errors.Is against the Err* sentinels below even after
// WithMessage or Wrap have layered context on top.
type Error interface {
	error
	WithMessage(message string) Error
	Wrap(err error) Error
}

type baseError string

var ErrAllocationFailed = baseError("Block allocation failed")
var ErrDirectoryFull = baseError("No free directory entry slots")
var ErrDirectoryNotEmpty = baseError("Directory not empty")
var ErrExists = baseError("File exists")
var ErrFileTooLarge = baseError("File too large")
var ErrInvalidArgument = baseError("Invalid argument")
var ErrInvalidPath = baseError("Invalid path")
var ErrInvalidVolume = baseError("Not a valid volume image")
var ErrNameTooLong = baseError("File name too long")
var ErrNoFreeInodes = baseError("No free inodes")
var ErrNoSpaceOnVolume = baseError("No space left on volume")
var ErrNotADirectory = baseError("Not a directory")
var ErrNotAFile = baseError("Not a file")
var ErrNotFound = baseError("No such file or directory")
var ErrVolumeCorrupted = baseError("Volume structure needs cleaning")

func (e baseError) Error() string {
	return string(e)
}

func (e baseError) WithMessage(message string) Error {
	return customError{
		message:       fmt.Sprintf("%s: %s", string(e), message),
		originalError: e,
	}
}

func (e baseError) Wrap(err error) Error {
	return customError{
		message:       fmt.Sprintf("%s: %s", string(e), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

// -----------------------------------------------------------------------------

type customError struct {
	message       string
	originalError error
}

// Error implements the `error` object interface. When called, it returns a
// string describing the error.
func (e customError) Error() string {
	return e.message
}

func (e customError) WithMessage(message string) Error {
	return customError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
	}
}

func (e customError) Wrap(err error) Error {
	return customError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

func (e customError) Unwrap() error {
	return e.originalError
}
