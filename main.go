package main

import (
	"os"

	"github.com/upwork-automation/ranker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
