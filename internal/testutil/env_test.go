// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"testing"
)

func TestSetHomeDir(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("subtest", func(t *testing.T) {
		SetHomeDir(t, tmpDir)

		home, err := os.UserHomeDir()
		if err != nil {
			t.Fatalf("UserHomeDir() error: %v", err)
		}
		if home != tmpDir {
			t.Errorf("UserHomeDir() = %q, want %q", home, tmpDir)
		}
	})

	if home, err := os.UserHomeDir(); err == nil && home == tmpDir {
		t.Error("home directory was not restored after the subtest")
	}
}

func TestIsolateBuildEnv(t *testing.T) {
	t.Setenv("BLOCKBUILD_OUT_PATH", "elsewhere")

	t.Run("subtest", func(t *testing.T) {
		IsolateBuildEnv(t)
		for _, name := range buildEnv {
			if v := os.Getenv(name); v != "" {
				t.Errorf("%s = %q, want empty", name, v)
			}
		}
	})

	if v := os.Getenv("BLOCKBUILD_OUT_PATH"); v != "elsewhere" {
		t.Errorf("BLOCKBUILD_OUT_PATH = %q after the subtest, want it restored", v)
	}
}
