package main

import (
	"os"

	"github.com/stemsi/submission-portal/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
