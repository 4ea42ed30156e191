package main

import (
	"os"

	"github.com/rustyeddy/predictsim/cmd/predictsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
