// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the visabridge
// application. It implements the bridge itself plus configuration
// inspection using the Cobra CLI framework.
package cmd

import (
	"fmt"
	"os"
	"time"

	"visabridge/cli/internal/bridge"
	"visabridge/cli/internal/resource"
	"visabridge/cli/internal/terminal"
	"visabridge/cli/internal/visa"

	"github.com/spf13/cobra"
)

var (
	showVersion bool
	timeoutMS   int
	verbose     bool
)

// rootCmd represents the base command. Given a resource name it
// bridges standard input to the instrument.
var rootCmd = &cobra.Command{
	Use:   "visabridge <resource>",
	Short: "Bridge standard input to a VISA instrument",
	Long: `Visabridge reads SCPI commands from standard input and sends them to
the instrument named by a VISA resource string. Lines containing a
question mark are queries; their responses are printed to standard
output. Every other line is written to the instrument with no
response expected.

Supported resource names:
  TCPIP0::192.168.1.5::INSTR            VXI-11
  TCPIP0::192.168.1.5::hislip0::INSTR   HiSLIP
  TCPIP0::192.168.1.5::5025::SOCKET     raw socket
  ASRL1::INSTR                          serial, 1-based port index
  ASRL/dev/ttyUSB0::INSTR               serial, explicit device
  USB0::0x1ab1::0x04ce::INSTR           USBTMC
  GPIB0::6::INSTR                       Prologix GPIB controller`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			return nil
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("visabridge %s\n", Version)
			return nil
		}
		return runBridge(args[0])
	},
}

// Execute runs the CLI application. Fatal errors go to stderr as a
// single diagnostic and exit with status 1; line-level instrument
// failures are handled inside the run and do not change the exit
// status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runBridge(resourceName string) error {
	res, err := resource.Parse(resourceName)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "opening %s via %s (timeout %d ms)\n",
			resourceName, visa.BackendName(res), timeoutMS)
	}

	var stopSpinner func()
	if terminal.IsTerminal(os.Stderr) {
		stopSpinner = startInlineSpinner(os.Stderr, "connecting to "+resourceName,
			spinnerFrames, 100*time.Millisecond)
	}

	sess, err := visa.Open(res)
	if stopSpinner != nil {
		stopSpinner()
	}
	if err != nil {
		return err
	}

	closed := false
	defer func() {
		if !closed {
			sess.Close()
		}
	}()

	if err := sess.SetTimeout(time.Duration(timeoutMS) * time.Millisecond); err != nil {
		return err
	}

	stats, err := bridge.Run(sess, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}

	// The single close; its failure is as fatal as a failed open.
	closed = true
	if err := sess.Close(); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "%d writes, %d queries, %d skipped, %d errors\n",
			stats.Writes, stats.Queries, stats.Skipped, stats.Errors)
	}
	return nil
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")
	rootCmd.Flags().IntVar(&timeoutMS, "timeout", 5000, "I/O timeout in milliseconds")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Report connection info and a transfer summary on stderr")
}
