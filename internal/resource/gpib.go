// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package resource

import (
	"fmt"
	"strconv"
	"strings"
)

// parseGPIB parses GPIB INSTR resource names:
//
//	GPIB[board]::<primary address>::INSTR
//
// The board number picks the controller; which serial port that
// controller sits on is configuration, not part of the name.
func parseGPIB(name string) (*Resource, error) {
	parts := trimClass(strings.Split(name, sep), "INSTR")
	if len(parts) != 2 {
		return nil, NewParseError(name, "wrong number of segments", "use GPIB0::6::INSTR")
	}

	board, err := parseBoard(parts[0], "GPIB", name)
	if err != nil {
		return nil, err
	}

	addr, err := strconv.Atoi(parts[1])
	if err != nil || addr < 0 || addr > 30 {
		return nil, NewParseError(name, fmt.Sprintf("invalid primary address %q", parts[1]),
			"GPIB primary addresses range from 0 to 30")
	}

	return &Resource{
		Class:       ClassGPIB,
		Board:       board,
		PrimaryAddr: addr,
		Original:    name,
	}, nil
}
