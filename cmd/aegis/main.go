// Package main provides the aegis fairness audit CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/aegis/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
