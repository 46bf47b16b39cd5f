// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers cover file trees (WriteTree, MustWriteFile, MustReadFile),
// directories (MustMkdirAll) and the environment (SetHomeDir,
// IsolateBuildEnv). Project fixtures live in the projecttest subpackage.
package testutil
