package main

import (
	"os"

	"github.com/emmett/voxwake/cmd/voxwake/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
