// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package resource

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultLanName is the LAN device name used when a TCPIP INSTR
// resource omits it.
const DefaultLanName = "inst0"

// DefaultHiSLIPPort is the IANA-registered HiSLIP port.
const DefaultHiSLIPPort = 4880

// parseTCPIP parses TCPIP INSTR and SOCKET resource names:
//
//	TCPIP[board]::<host>[::<lan device name>]::INSTR
//	TCPIP[board]::<host>::<port>::SOCKET
//
// A LAN device name starting with "hislip" selects the HiSLIP
// protocol; any other name selects VXI-11.
func parseTCPIP(name string) (*Resource, error) {
	parts := strings.Split(name, sep)

	board, err := parseBoard(parts[0], "TCPIP", name)
	if err != nil {
		return nil, err
	}

	r := &Resource{Board: board, Original: name}

	if strings.EqualFold(parts[len(parts)-1], "SOCKET") {
		if len(parts) != 4 {
			return nil, NewParseError(name, "SOCKET resources need a host and a port",
				"use the form TCPIP0::192.168.1.5::5025::SOCKET")
		}
		port, err := strconv.Atoi(parts[2])
		if err != nil || port <= 0 || port > 65535 {
			return nil, NewParseError(name, fmt.Sprintf("invalid port %q", parts[2]),
				"the port must be a number between 1 and 65535")
		}
		if parts[1] == "" {
			return nil, NewParseError(name, "missing host",
				"use the form TCPIP0::192.168.1.5::5025::SOCKET")
		}
		r.Class = ClassTCPIPSocket
		r.Host = parts[1]
		r.Port = port
		return r, nil
	}

	parts = trimClass(parts, "INSTR")
	switch len(parts) {
	case 2:
		r.LanName = DefaultLanName
	case 3:
		r.LanName = parts[2]
	default:
		return nil, NewParseError(name, "wrong number of segments",
			"use TCPIP0::<host>::INSTR or TCPIP0::<host>::<lan name>::INSTR")
	}

	r.Class = ClassTCPIPInstr
	r.Host = parts[1]
	if r.Host == "" {
		return nil, NewParseError(name, "missing host", "use TCPIP0::<host>::INSTR")
	}
	if r.LanName == "" {
		return nil, NewParseError(name, "empty LAN device name",
			"omit the segment to get inst0, or name a device such as inst0 or hislip0")
	}

	if strings.HasPrefix(strings.ToLower(r.LanName), "hislip") {
		r.HiSLIP = true
		r.Port = DefaultHiSLIPPort
		// An optional ",port" suffix on the device name overrides
		// the default HiSLIP port.
		if comma := strings.Index(r.LanName, ","); comma != -1 {
			port, err := strconv.Atoi(r.LanName[comma+1:])
			if err != nil || port <= 0 || port > 65535 {
				return nil, NewParseError(name, fmt.Sprintf("invalid HiSLIP port in %q", r.LanName),
					"use hislip0,4880 to override the port")
			}
			r.Port = port
			r.LanName = r.LanName[:comma]
		}
	}

	return r, nil
}
