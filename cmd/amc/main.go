package main

import (
	"os"

	"github.com/amcframework/amc/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
