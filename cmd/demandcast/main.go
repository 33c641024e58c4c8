package main

import (
	"os"

	"github.com/partsflow/demandcast/cmd/demandcast/commands"
)

// main is the entry point for the demandcast CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
