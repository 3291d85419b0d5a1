package main

import (
	"github.com/axellelanca/shortly/cmd"

	// Blank imports run each command package's init(), which registers the
	// command with the root.
	_ "github.com/axellelanca/shortly/cmd/cli"
	_ "github.com/axellelanca/shortly/cmd/server"
)

func main() {
	cmd.Execute()
}
