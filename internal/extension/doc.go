// SPDX-License-Identifier: MPL-2.0

// Package extension discovers and loads API extensions.
//
// An extension is a Lua file returning a factory:
//
//	return function(deps)
//	    return {
//	        itemPath = function(name)
//	            return deps.std.path.join(deps.context.config.outPath, "BP", "items", name .. ".json")
//	        end,
//	    }
//	end
//
// The value the factory returns becomes the extension's namespace and is
// visible to every filter through `api.<namespace>`.
package extension
