// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge moves SCPI command lines between standard streams
// and an instrument session. The entire input is consumed before the
// first command goes out, so instrument I/O never waits on a slow
// pipe.
package bridge

import (
	"fmt"
	"io"
	"strings"
)

// Session is the slice of an instrument session the loop drives.
type Session interface {
	// Write sends a command line to the instrument.
	Write(cmd string) error
	// Query sends a command line and returns the instrument's
	// response.
	Query(cmd string) (string, error)
}

// Stats counts what one run did.
type Stats struct {
	Writes  int
	Queries int
	Skipped int
	Errors  int
}

// Run reads all of in, then feeds it to the session line by line.
// Blank lines and lines starting with # or // are skipped. A line
// containing a question mark is a query: its response is printed to
// out, trimmed, one line per query. Any other line is written with no
// response expected. Line-level failures are reported to errw and the
// loop continues. The returned error is non-nil only when reading the
// input itself fails, in which case nothing was sent.
func Run(session Session, in io.Reader, out, errw io.Writer) (Stats, error) {
	var stats Stats

	data, err := io.ReadAll(in)
	if err != nil {
		return stats, fmt.Errorf("read input: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	// A final newline terminates the last command; it does not open a
	// blank line.
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			stats.Skipped++
			continue
		}

		if strings.Contains(line, "?") {
			resp, err := session.Query(line)
			if err != nil {
				fmt.Fprintf(errw, "Error querying '%s': %v\n", line, err)
				stats.Errors++
				continue
			}
			fmt.Fprintln(out, strings.TrimSpace(resp))
			stats.Queries++
			continue
		}

		if err := session.Write(line); err != nil {
			fmt.Fprintf(errw, "Error writing '%s': %v\n", line, err)
			stats.Errors++
			continue
		}
		stats.Writes++
	}

	return stats, nil
}
