// SPDX-License-Identifier: MPL-2.0

// Package build orchestrates a build: pack preconditions, concurrent filter
// discovery and output preparation, sequential filter invocation, and the
// development mirror or .mcaddon packaging that follows.
//
// Every build gets its own Lua interpreter; nothing is shared between
// builds, so watch mode can call Build repeatedly on the same Builder.
package build
