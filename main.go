// SPDX-License-Identifier: MPL-2.0

package main

import cmd "modkit-cli/cmd/modkit"

func main() {
	cmd.Execute()
}
