// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package resource

import (
	"fmt"
	"strconv"
	"strings"
)

// parseSerial parses ASRL resource names:
//
//	ASRL<n>::INSTR           the n-th system serial port (1-based)
//	ASRL/dev/ttyUSB0::INSTR  an explicit device path
func parseSerial(name string) (*Resource, error) {
	parts := trimClass(strings.Split(name, sep), "INSTR")
	if len(parts) != 1 {
		return nil, NewParseError(name, "wrong number of segments",
			"use ASRL1::INSTR or ASRL/dev/ttyUSB0::INSTR")
	}

	rest := parts[0][len("ASRL"):]
	if rest == "" {
		return nil, NewParseError(name, "missing serial port",
			"use ASRL1::INSTR or ASRL/dev/ttyUSB0::INSTR")
	}

	r := &Resource{Class: ClassSerial, Original: name}
	if strings.HasPrefix(rest, "/") {
		r.Device = rest
		return r, nil
	}

	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return nil, NewParseError(name, fmt.Sprintf("invalid serial port %q", rest),
			"use a 1-based port index (ASRL1) or a device path (ASRL/dev/ttyUSB0)")
	}
	r.SerialIndex = n
	return r, nil
}
