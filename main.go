// Package main is the entry point for the visabridge CLI application.
// It pipes SCPI commands from standard input to a VISA instrument.
package main

import (
	"visabridge/cli/cmd"
)

// main is the entry point for the visabridge CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
