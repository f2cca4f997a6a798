// Package main is the entrypoint for snowglobectl, the snowglobe operator
// CLI.
package main

import (
	"os"

	"github.com/snowglobe/snowglobe/internal/cli"
)

func main() {
	os.Exit(cli.New().Execute())
}
