// Package main provides the photorama command-line client.
package main

import (
	"fmt"
	"os"

	"github.com/photoramax/photorama/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	var flags config.Flags
	if err := newRootCmd(&flags).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
