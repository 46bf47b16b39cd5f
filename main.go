// SPDX-License-Identifier: MPL-2.0

// Command blockbuild compiles Minecraft add-on projects.
package main

import cmd "github.com/fluffycraft/blockbuild/cmd/blockbuild"

func main() {
	cmd.Execute()
}
