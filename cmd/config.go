// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"visabridge/cli/internal/config"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var initConfig bool

// configCmd represents the config command for displaying transport settings.
// It shows the serial line parameters and GPIB board mappings currently in
// effect, along with the file they are read from.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show transport configuration",
	Long: `The config command displays the serial line settings applied to ASRL
resources and the serial devices mapped to Prologix GPIB boards. Settings are
read from a JSON file in the user configuration directory; built-in defaults
apply when the file does not exist.

With --init, a config file holding the default settings is written first so
it can be edited, for example to map a GPIB board to its serial device.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		path, err := config.Path()
		if err != nil {
			return err
		}

		if initConfig {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config file %s already exists", path)
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return err
			}
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Serial: %d baud, %d data bits, parity %s, %d stop bits, terminator %q\n",
			cfg.Serial.BaudRate, cfg.Serial.DataBits, cfg.Serial.Parity,
			cfg.Serial.StopBits, cfg.Serial.Terminator)
		b.WriteString("GPIB boards:")
		if len(cfg.GPIB.Boards) == 0 {
			b.WriteString(" none configured")
		} else {
			boards := make([]int, 0, len(cfg.GPIB.Boards))
			for board := range cfg.GPIB.Boards {
				boards = append(boards, board)
			}
			sort.Ints(boards)
			for _, board := range boards {
				fmt.Fprintf(&b, "\n  GPIB%d -> %s", board, cfg.GPIB.Boards[board])
			}
		}

		// Display the transport settings
		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Transport Configuration")).
			WithPadding(1).
			Println(b.String())
		pterm.Println()
		pterm.Println("Config file: " + path)
		pterm.Println()

		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&initConfig, "init", false, "Write the default settings to the config file if none exists")
	rootCmd.AddCommand(configCmd)
}
