package main

import (
	"os"

	"github.com/danilovkiri/dk-go-earnhub/internal/cli"
)

func main() {
	if err := cli.NewRootCommand(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
