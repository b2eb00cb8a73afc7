package main

import (
	"os"

	"github.com/fitonboard/backend/cmd/fitctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
