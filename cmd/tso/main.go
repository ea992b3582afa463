package main

import (
	"os"

	"github.com/travelsystem/tso/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
