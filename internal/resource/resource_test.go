// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package resource

import (
	"errors"
	"strings"
	"testing"
)

func TestDetectClass(t *testing.T) {
	tests := []struct {
		name     string
		resource string
		want     Class
	}{
		{
			name:     "tcpip instr",
			resource: "TCPIP0::192.168.1.5::INSTR",
			want:     ClassTCPIPInstr,
		},
		{
			name:     "tcpip without board",
			resource: "TCPIP::192.168.1.5::INSTR",
			want:     ClassTCPIPInstr,
		},
		{
			name:     "tcpip socket",
			resource: "TCPIP0::192.168.1.5::5025::SOCKET",
			want:     ClassTCPIPSocket,
		},
		{
			name:     "tcpip socket lowercase",
			resource: "tcpip0::192.168.1.5::5025::socket",
			want:     ClassTCPIPSocket,
		},
		{
			name:     "serial index",
			resource: "ASRL1::INSTR",
			want:     ClassSerial,
		},
		{
			name:     "serial device path",
			resource: "ASRL/dev/ttyUSB0::INSTR",
			want:     ClassSerial,
		},
		{
			name:     "usb",
			resource: "USB0::0x1ab1::0x04ce::INSTR",
			want:     ClassUSB,
		},
		{
			name:     "gpib",
			resource: "GPIB0::6::INSTR",
			want:     ClassGPIB,
		},
		{
			name:     "unknown prefix",
			resource: "VXI0::1::INSTR",
			want:     ClassUnknown,
		},
		{
			name:     "empty",
			resource: "",
			want:     ClassUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectClass(tt.resource)
			if got != tt.want {
				t.Errorf("DetectClass() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTCPIP(t *testing.T) {
	tests := []struct {
		name        string
		resource    string
		wantClass   Class
		wantBoard   int
		wantHost    string
		wantPort    int
		wantLanName string
		wantHiSLIP  bool
		expectError bool
	}{
		{
			name:        "instr with default lan name",
			resource:    "TCPIP0::192.168.1.5::INSTR",
			wantClass:   ClassTCPIPInstr,
			wantHost:    "192.168.1.5",
			wantLanName: "inst0",
		},
		{
			name:        "instr suffix omitted",
			resource:    "TCPIP0::192.168.1.5",
			wantClass:   ClassTCPIPInstr,
			wantHost:    "192.168.1.5",
			wantLanName: "inst0",
		},
		{
			name:        "instr with hostname",
			resource:    "TCPIP::scope.lab.local::INSTR",
			wantClass:   ClassTCPIPInstr,
			wantHost:    "scope.lab.local",
			wantLanName: "inst0",
		},
		{
			name:        "instr with explicit lan name",
			resource:    "TCPIP0::192.168.1.5::inst1::INSTR",
			wantClass:   ClassTCPIPInstr,
			wantHost:    "192.168.1.5",
			wantLanName: "inst1",
		},
		{
			name:        "instr with board number",
			resource:    "TCPIP2::192.168.1.5::INSTR",
			wantClass:   ClassTCPIPInstr,
			wantBoard:   2,
			wantHost:    "192.168.1.5",
			wantLanName: "inst0",
		},
		{
			name:        "hislip device name",
			resource:    "TCPIP0::192.168.1.5::hislip0::INSTR",
			wantClass:   ClassTCPIPInstr,
			wantHost:    "192.168.1.5",
			wantLanName: "hislip0",
			wantPort:    4880,
			wantHiSLIP:  true,
		},
		{
			name:        "hislip with port override",
			resource:    "TCPIP0::192.168.1.5::hislip0,5000::INSTR",
			wantClass:   ClassTCPIPInstr,
			wantHost:    "192.168.1.5",
			wantLanName: "hislip0",
			wantPort:    5000,
			wantHiSLIP:  true,
		},
		{
			name:      "socket",
			resource:  "TCPIP0::192.168.1.5::5025::SOCKET",
			wantClass: ClassTCPIPSocket,
			wantHost:  "192.168.1.5",
			wantPort:  5025,
		},
		{
			name:        "socket missing port",
			resource:    "TCPIP0::192.168.1.5::SOCKET",
			expectError: true,
		},
		{
			name:        "socket port out of range",
			resource:    "TCPIP0::192.168.1.5::70000::SOCKET",
			expectError: true,
		},
		{
			name:        "socket non-numeric port",
			resource:    "TCPIP0::192.168.1.5::abc::SOCKET",
			expectError: true,
		},
		{
			name:        "missing host",
			resource:    "TCPIP0::::INSTR",
			expectError: true,
		},
		{
			name:        "too many segments",
			resource:    "TCPIP0::a::b::c::INSTR",
			expectError: true,
		},
		{
			name:        "invalid board",
			resource:    "TCPIPx::192.168.1.5::INSTR",
			expectError: true,
		},
		{
			name:        "invalid hislip port",
			resource:    "TCPIP0::192.168.1.5::hislip0,abc::INSTR",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.resource)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if r.Class != tt.wantClass {
				t.Errorf("class = %v, want %v", r.Class, tt.wantClass)
			}
			if r.Board != tt.wantBoard {
				t.Errorf("board = %d, want %d", r.Board, tt.wantBoard)
			}
			if r.Host != tt.wantHost {
				t.Errorf("host = %q, want %q", r.Host, tt.wantHost)
			}
			if r.Port != tt.wantPort {
				t.Errorf("port = %d, want %d", r.Port, tt.wantPort)
			}
			if r.LanName != tt.wantLanName {
				t.Errorf("lan name = %q, want %q", r.LanName, tt.wantLanName)
			}
			if r.HiSLIP != tt.wantHiSLIP {
				t.Errorf("hislip = %t, want %t", r.HiSLIP, tt.wantHiSLIP)
			}
			if r.Original != tt.resource {
				t.Errorf("original = %q, want %q", r.Original, tt.resource)
			}
		})
	}
}

func TestParseSerial(t *testing.T) {
	tests := []struct {
		name        string
		resource    string
		wantIndex   int
		wantDevice  string
		expectError bool
	}{
		{
			name:      "index with class",
			resource:  "ASRL1::INSTR",
			wantIndex: 1,
		},
		{
			name:      "index without class",
			resource:  "ASRL3",
			wantIndex: 3,
		},
		{
			name:       "device path",
			resource:   "ASRL/dev/ttyUSB0::INSTR",
			wantDevice: "/dev/ttyUSB0",
		},
		{
			name:       "device path without class",
			resource:   "ASRL/dev/ttyACM2",
			wantDevice: "/dev/ttyACM2",
		},
		{
			name:        "missing port",
			resource:    "ASRL::INSTR",
			expectError: true,
		},
		{
			name:        "zero index",
			resource:    "ASRL0::INSTR",
			expectError: true,
		},
		{
			name:        "non-numeric index",
			resource:    "ASRLx::INSTR",
			expectError: true,
		},
		{
			name:        "too many segments",
			resource:    "ASRL1::9600::INSTR",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.resource)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if r.Class != ClassSerial {
				t.Errorf("class = %v, want %v", r.Class, ClassSerial)
			}
			if r.SerialIndex != tt.wantIndex {
				t.Errorf("index = %d, want %d", r.SerialIndex, tt.wantIndex)
			}
			if r.Device != tt.wantDevice {
				t.Errorf("device = %q, want %q", r.Device, tt.wantDevice)
			}
		})
	}
}

func TestParseUSB(t *testing.T) {
	tests := []struct {
		name        string
		resource    string
		wantVID     uint16
		wantPID     uint16
		wantSerial  string
		expectError bool
	}{
		{
			name:     "hex ids",
			resource: "USB0::0x1ab1::0x04ce::INSTR",
			wantVID:  0x1ab1,
			wantPID:  0x04ce,
		},
		{
			name:     "decimal ids",
			resource: "USB0::6833::1230::INSTR",
			wantVID:  6833,
			wantPID:  1230,
		},
		{
			name:       "with serial number",
			resource:   "USB0::0x1ab1::0x04ce::DS1ZA170000001::INSTR",
			wantVID:    0x1ab1,
			wantPID:    0x04ce,
			wantSerial: "DS1ZA170000001",
		},
		{
			name:     "class omitted",
			resource: "USB0::0x1ab1::0x04ce",
			wantVID:  0x1ab1,
			wantPID:  0x04ce,
		},
		{
			name:        "missing product id",
			resource:    "USB0::0x1ab1::INSTR",
			expectError: true,
		},
		{
			name:        "invalid vendor id",
			resource:    "USB0::rigol::0x04ce::INSTR",
			expectError: true,
		},
		{
			name:        "vendor id too large",
			resource:    "USB0::0x11ab1::0x04ce::INSTR",
			expectError: true,
		},
		{
			name:        "empty serial segment",
			resource:    "USB0::0x1ab1::0x04ce::::INSTR",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.resource)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if r.Class != ClassUSB {
				t.Errorf("class = %v, want %v", r.Class, ClassUSB)
			}
			if r.VendorID != tt.wantVID {
				t.Errorf("vendor id = 0x%04x, want 0x%04x", r.VendorID, tt.wantVID)
			}
			if r.ProductID != tt.wantPID {
				t.Errorf("product id = 0x%04x, want 0x%04x", r.ProductID, tt.wantPID)
			}
			if r.SerialNumber != tt.wantSerial {
				t.Errorf("serial number = %q, want %q", r.SerialNumber, tt.wantSerial)
			}
		})
	}
}

func TestParseGPIB(t *testing.T) {
	tests := []struct {
		name        string
		resource    string
		wantBoard   int
		wantAddr    int
		expectError bool
	}{
		{
			name:     "standard form",
			resource: "GPIB0::6::INSTR",
			wantAddr: 6,
		},
		{
			name:      "board one",
			resource:  "GPIB1::22::INSTR",
			wantBoard: 1,
			wantAddr:  22,
		},
		{
			name:     "class omitted",
			resource: "GPIB0::6",
			wantAddr: 6,
		},
		{
			name:     "address zero",
			resource: "GPIB0::0::INSTR",
			wantAddr: 0,
		},
		{
			name:        "address out of range",
			resource:    "GPIB0::31::INSTR",
			expectError: true,
		},
		{
			name:        "missing address",
			resource:    "GPIB0::INSTR",
			expectError: true,
		},
		{
			name:        "non-numeric address",
			resource:    "GPIB0::six::INSTR",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.resource)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}

			if r.Class != ClassGPIB {
				t.Errorf("class = %v, want %v", r.Class, ClassGPIB)
			}
			if r.Board != tt.wantBoard {
				t.Errorf("board = %d, want %d", r.Board, tt.wantBoard)
			}
			if r.PrimaryAddr != tt.wantAddr {
				t.Errorf("primary address = %d, want %d", r.PrimaryAddr, tt.wantAddr)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		resource string
	}{
		{
			name:     "empty name",
			resource: "",
		},
		{
			name:     "whitespace only",
			resource: "   ",
		},
		{
			name:     "unknown interface",
			resource: "PXI0::1::INSTR",
		},
		{
			name:     "bare word",
			resource: "nonsense",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.resource)
			if err == nil {
				t.Fatal("expected error but got none")
			}

			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("error type = %T, want *ParseError", err)
			}
		})
	}
}

func TestParseErrorFormat(t *testing.T) {
	withHint := NewParseError("X::Y", "bad segment", "try harder")
	if got := withHint.Error(); !strings.Contains(got, "bad segment") || !strings.Contains(got, "Hint: try harder") {
		t.Errorf("Error() = %q, want reason and hint", got)
	}

	withoutHint := NewParseError("X::Y", "bad segment", "")
	if got := withoutHint.Error(); strings.Contains(got, "Hint") {
		t.Errorf("Error() = %q, should not mention a hint", got)
	}
}
