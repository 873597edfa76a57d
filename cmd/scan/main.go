package main

import (
	"os"

	"github.com/mohamedkhairy/pineseries/cmd/scan/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
