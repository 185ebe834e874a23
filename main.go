// Copyright (c) 2025 ToeiRei
// Lockbox - encrypted credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Lockbox.
//
// Usage:
//
//	go run . [flags]
//	./lockbox [flags]
//
// This launches the Lockbox CLI. See --help for options.
package main

import (
	"os"

	"github.com/toeirei/lockbox/ui/cli"
)

// main is the entrypoint for the Lockbox CLI.
func main() {
	if err := cli.Execute(); err != nil {
		// Cobra already printed the error through its own error handling.
		os.Exit(1)
	}
}
