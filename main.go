package main

import (
	"os"

	"github.com/malivvan/emvcap/cmd/cli"
)

var version = "dev"

func main() {
	root := cli.New(version, nil)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
