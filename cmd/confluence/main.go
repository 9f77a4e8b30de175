package main

import (
	"os"

	"github.com/mreyes/confluence/cmd/confluence/commands"
)

// main is the entry point for the confluence CLI:
// go run ./cmd/confluence [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
