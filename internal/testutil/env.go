// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"runtime"
	"testing"
)

// buildEnv lists the environment variables that override project paths.
var buildEnv = []string{
	"BLOCKBUILD_SRC_PATH",
	"BLOCKBUILD_OUT_PATH",
	"BLOCKBUILD_COM_MOJANG_PATH",
}

// SetHomeDir points the user home directory at dir for the rest of the
// test, so home-relative paths such as the default com.mojang location
// resolve inside a temp dir. Tests using it cannot run in parallel.
func SetHomeDir(t *testing.T, dir string) {
	t.Helper()

	switch runtime.GOOS {
	case "windows":
		t.Setenv("USERPROFILE", dir)
	default:
		t.Setenv("HOME", dir)
	}
}

// IsolateBuildEnv blanks every BLOCKBUILD_* path override for the rest of
// the test. Empty values are treated as unset by the config loader.
func IsolateBuildEnv(t *testing.T) {
	t.Helper()
	for _, name := range buildEnv {
		t.Setenv(name, "")
	}
}
