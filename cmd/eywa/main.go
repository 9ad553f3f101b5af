// Package main provides the entry point for the eywa CLI.
package main

import (
	"os"

	"github.com/nans28/eywa/cmd/eywa/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
