// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package resource parses VISA resource names into typed descriptions.
// A resource name identifies an instrument and the interface used to
// reach it, e.g. TCPIP0::192.168.1.5::INSTR or GPIB0::6::INSTR. Parsing
// is purely syntactic; whether the named instrument is reachable is
// decided by the transport that opens it.
package resource

import (
	"fmt"
	"strconv"
	"strings"
)

// sep separates the segments of a resource name.
const sep = "::"

// DetectClass detects the interface class from a VISA resource name
func DetectClass(name string) Class {
	upper := strings.ToUpper(strings.TrimSpace(name))

	switch {
	case strings.HasPrefix(upper, "TCPIP"):
		if strings.HasSuffix(upper, sep+"SOCKET") {
			return ClassTCPIPSocket
		}
		return ClassTCPIPInstr
	case strings.HasPrefix(upper, "ASRL"):
		return ClassSerial
	case strings.HasPrefix(upper, "USB"):
		return ClassUSB
	case strings.HasPrefix(upper, "GPIB"):
		return ClassGPIB
	}

	return ClassUnknown
}

// Parse parses a VISA resource name and returns a typed Resource.
// This is the main entry point for resource name parsing.
func Parse(name string) (*Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewParseError(name, "empty resource name", "provide a VISA resource name such as TCPIP0::192.168.1.5::INSTR")
	}

	switch DetectClass(name) {
	case ClassTCPIPInstr, ClassTCPIPSocket:
		return parseTCPIP(name)
	case ClassSerial:
		return parseSerial(name)
	case ClassUSB:
		return parseUSB(name)
	case ClassGPIB:
		return parseGPIB(name)
	}

	return nil, NewParseError(name, "unknown interface type", "resource names start with TCPIP, ASRL, USB, or GPIB")
}

// parseBoard extracts the numeric board suffix from an interface
// segment such as "TCPIP0" or "GPIB". A missing suffix means board 0.
func parseBoard(segment, prefix, name string) (int, error) {
	rest := segment[len(prefix):]
	if rest == "" {
		return 0, nil
	}
	board, err := strconv.Atoi(rest)
	if err != nil || board < 0 {
		return 0, NewParseError(name, fmt.Sprintf("invalid board number %q", rest),
			"the interface prefix takes an optional non-negative number, e.g. "+prefix+"0")
	}
	return board, nil
}

// trimClass drops an optional trailing class segment. INSTR is the
// default class, so TCPIP0::host and TCPIP0::host::INSTR are the same
// resource.
func trimClass(parts []string, class string) []string {
	if len(parts) > 0 && strings.EqualFold(parts[len(parts)-1], class) {
		return parts[:len(parts)-1]
	}
	return parts
}
