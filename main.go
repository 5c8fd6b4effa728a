package main

import (
	"os"

	"github.com/joelrodriguezguzman/markdown/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
