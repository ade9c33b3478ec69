// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"
	"os/user"

	"cscc/repl"
)

func main() {
	u, err := user.Current()
	username := "user"
	if err == nil {
		username = u.Username
	}

	fmt.Printf("Hello %s! This is the cscc REPL.\n", username)
	fmt.Println("Type a C function declaration per line; Ctrl-D to exit.")
	repl.Start(os.Stdin)
}
