package main

import (
	"os"

	"github.com/manojoshi/docquery/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
