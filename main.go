package main

import (
	"os"

	"github.com/ben-hur-snyk/snyk-scripts/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
