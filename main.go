// SPDX-License-Identifier: MPL-2.0

// Command swarmboot finds and inspects modules packed in bootstrap archives.
package main

import cmd "github.com/swarmboot/swarmboot/cmd/swarmboot"

func main() {
	cmd.Execute()
}
