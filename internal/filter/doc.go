// SPDX-License-Identifier: MPL-2.0

// Package filter discovers filter scripts and turns them into registry
// entries.
//
// A filter is a .lua or .sh file under <srcPath>/filters or under
// <module>/filters for installed modules. Evaluating it runs its declare
// phase: the script calls filter() once with its definition options and
// defines main. The build later invokes main once per configured
// invocation. Ids are derived from the file's base name, so two files with
// the same name in one namespace collide and the last discovered wins.
package filter
