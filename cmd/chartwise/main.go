package main

import (
	"os"

	"github.com/sant0-9/chartwise/internal/cli"
)

var version = "dev"

func main() {
	cli.Version = version
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
