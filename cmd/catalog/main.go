// Package main provides the entry point for the catalog CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/catalog/cmd/catalog/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
