// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package resource

import (
	"fmt"
	"strconv"
	"strings"
)

// parseUSB parses USB INSTR resource names:
//
//	USB[board]::<vid>::<pid>[::<serial number>]::INSTR
//
// Vendor and product IDs accept decimal or 0x-prefixed hex. The
// optional serial number selects among several attached devices with
// the same IDs.
func parseUSB(name string) (*Resource, error) {
	parts := trimClass(strings.Split(name, sep), "INSTR")
	if len(parts) < 3 || len(parts) > 4 {
		return nil, NewParseError(name, "wrong number of segments",
			"use USB0::0x1ab1::0x04ce::INSTR, optionally with a serial number segment")
	}

	board, err := parseBoard(parts[0], "USB", name)
	if err != nil {
		return nil, err
	}

	vid, err := parseUSBID(parts[1])
	if err != nil {
		return nil, NewParseError(name, fmt.Sprintf("invalid vendor ID %q", parts[1]),
			"vendor and product IDs are 16-bit numbers, decimal or 0x-prefixed hex")
	}
	pid, err := parseUSBID(parts[2])
	if err != nil {
		return nil, NewParseError(name, fmt.Sprintf("invalid product ID %q", parts[2]),
			"vendor and product IDs are 16-bit numbers, decimal or 0x-prefixed hex")
	}

	r := &Resource{
		Class:     ClassUSB,
		Board:     board,
		VendorID:  vid,
		ProductID: pid,
		Original:  name,
	}
	if len(parts) == 4 {
		if parts[3] == "" {
			return nil, NewParseError(name, "empty serial number segment",
				"drop the segment or give the device serial number")
		}
		r.SerialNumber = parts[3]
	}
	return r, nil
}

// parseUSBID parses a 16-bit USB vendor or product ID.
func parseUSBID(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
