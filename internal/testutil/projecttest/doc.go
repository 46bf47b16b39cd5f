// SPDX-License-Identifier: MPL-2.0

// Package projecttest builds blockbuild projects on disk for tests.
//
// This package is separate from testutil to avoid import cycles, since
// testutil is used by internal/config tests which cannot import themselves
// through a helper.
//
// # Usage
//
//	p := projecttest.New(t,
//	    projecttest.WithPacks(config.PackBehavior),
//	    projecttest.WithFile("src/filters/sort.lua", "filter()"),
//	    projecttest.WithFilter("sort", nil),
//	)
//	res, err := build.New(build.Options{}).Build(ctx, p.BuildContext())
package projecttest
