package main

import (
	"os"

	"github.com/scot00671234/tradingjournal/cmd/trader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
