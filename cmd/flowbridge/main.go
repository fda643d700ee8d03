package main

import (
	"os"

	"github.com/a2y-d5l/flowbridge/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
