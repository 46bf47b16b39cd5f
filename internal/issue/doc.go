// SPDX-License-Identifier: MPL-2.0

// Package issue classifies build failures and renders them for users.
//
// Every fatal failure of a build is an *Error carrying a Kind (CLI, Runtime,
// Internal, Uncaught, Schema), a short Code such as "RT1" or "I4" and, for
// runtime failures, the id of the filter that caused it. A small catalog maps
// codes to Markdown help rendered with glamour. ActionableError covers
// configuration and scaffolding failures that come with suggestions.
package issue
