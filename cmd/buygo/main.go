package main

import (
	"os"

	"github.com/fishtvlvoe/buygo/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
