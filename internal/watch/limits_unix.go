// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"syscall"
)

// fatalHint reports whether err leaves the watcher unable to continue and,
// if so, what the user can do about it. On Unix these are inotify and file
// descriptor exhaustion; a large project tree with many module directories
// is the usual cause.
func fatalHint(err error) (string, bool) {
	switch {
	case errors.Is(err, syscall.ENOSPC):
		return "inotify watch limit reached; raise fs.inotify.max_user_watches", true
	case errors.Is(err, syscall.EMFILE):
		return "open file limit reached; raise it with ulimit -n", true
	case errors.Is(err, syscall.ENFILE):
		return "system file table is full; stop other watchers and retry", true
	default:
		return "", false
	}
}
