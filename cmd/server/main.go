// Package main is the entry point for the cashflow server and CLI.
package main

import (
	"os"

	"github.com/warp/cashflow-engine/cmd/server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
