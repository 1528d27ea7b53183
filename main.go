package main

import (
	"os"

	"github.com/Ethan-Gao/drow/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
