// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"errors"
	"syscall"
)

// Win32 error codes after which ReadDirectoryChangesW cannot recover.
const (
	errnoTooManyOpenFiles = syscall.Errno(4)
	errnoInvalidHandle    = syscall.Errno(6)
	errnoNotEnoughMemory  = syscall.Errno(8)
)

// fatalHint reports whether err leaves the watcher unable to continue and,
// if so, what the user can do about it.
func fatalHint(err error) (string, bool) {
	switch {
	case errors.Is(err, errnoTooManyOpenFiles):
		return "handle limit reached; close programs holding files in the project", true
	case errors.Is(err, errnoInvalidHandle):
		return "the project directory was removed or unmounted", true
	case errors.Is(err, errnoNotEnoughMemory):
		return "not enough memory for change notifications", true
	default:
		return "", false
	}
}
