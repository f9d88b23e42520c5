package main

import (
	"os"

	"github.com/emberwallet/swapcore/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
