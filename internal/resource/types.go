// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package resource

import "fmt"

// Class represents the interface class of a VISA resource
type Class string

const (
	ClassTCPIPInstr  Class = "tcpip-instr"
	ClassTCPIPSocket Class = "tcpip-socket"
	ClassSerial      Class = "serial"
	ClassUSB         Class = "usb"
	ClassGPIB        Class = "gpib"
	ClassUnknown     Class = "unknown"
)

// Resource contains parsed information from a VISA resource name
type Resource struct {
	Class Class
	Board int

	// TCPIP resources
	Host    string
	Port    int    // SOCKET port, or HiSLIP port override
	LanName string // LAN device name such as "inst0" or "hislip0"
	HiSLIP  bool

	// Serial resources
	Device      string // explicit device path, e.g. /dev/ttyUSB0
	SerialIndex int    // 1-based index into the system port list

	// USB resources
	VendorID     uint16
	ProductID    uint16
	SerialNumber string

	// GPIB resources
	PrimaryAddr int

	Original string
}

// String returns the original resource name
func (r *Resource) String() string {
	return r.Original
}

// ParseError represents an error that occurred during resource name parsing
type ParseError struct {
	Name   string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid resource name: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid resource name: %s", e.Reason)
}

// NewParseError creates a new ParseError
func NewParseError(name, reason, hint string) *ParseError {
	return &ParseError{
		Name:   name,
		Reason: reason,
		Hint:   hint,
	}
}
