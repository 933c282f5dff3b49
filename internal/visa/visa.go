// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package visa opens instrument sessions from VISA resource names.
// The resource name picks the transport; everything past that point
// speaks the same session interface.
package visa

import (
	"fmt"
	"time"

	"visabridge/cli/internal/config"
	"visabridge/cli/internal/resource"
	"visabridge/cli/internal/visa/asrl"
	"visabridge/cli/internal/visa/gpib"
	"visabridge/cli/internal/visa/hislip"
	"visabridge/cli/internal/visa/socket"
	"visabridge/cli/internal/visa/usbtmc"
	"visabridge/cli/internal/visa/vxi11"
)

// Session is an open connection to one instrument. Write sends a
// command line; Query sends one and returns the response with its
// trailing terminator trimmed. Sessions are not safe for concurrent
// use.
type Session interface {
	SetTimeout(time.Duration) error
	Write(cmd string) error
	Query(cmd string) (string, error)
	Close() error
}

var (
	_ Session = (*socket.Conn)(nil)
	_ Session = (*hislip.Client)(nil)
	_ Session = (*vxi11.Client)(nil)
	_ Session = (*usbtmc.Device)(nil)
	_ Session = (*asrl.Port)(nil)
	_ Session = (*gpib.Instrument)(nil)
)

// Open connects to the instrument named by a parsed resource. Serial
// and GPIB resources additionally consult the bridge configuration
// for port settings the name cannot carry.
func Open(r *resource.Resource) (Session, error) {
	switch r.Class {
	case resource.ClassTCPIPInstr:
		if r.HiSLIP {
			return hislip.Dial(r.Host, r.Port, r.LanName)
		}
		return vxi11.Dial(r.Host, r.LanName)

	case resource.ClassTCPIPSocket:
		return socket.Dial(r.Host, r.Port)

	case resource.ClassSerial:
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
		device := r.Device
		if device == "" {
			device, err = asrl.Lookup(r.SerialIndex)
			if err != nil {
				return nil, err
			}
		}
		return asrl.Open(device, serialOptions(cfg.Serial))

	case resource.ClassUSB:
		return usbtmc.Open(r.VendorID, r.ProductID, r.SerialNumber)

	case resource.ClassGPIB:
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
		device, ok := cfg.GPIB.Boards[r.Board]
		if !ok || device == "" {
			path, _ := config.Path()
			return nil, fmt.Errorf("no serial device configured for GPIB board %d; map it under gpib.boards in %s", r.Board, path)
		}
		return gpib.Open(device, r.PrimaryAddr)
	}

	return nil, fmt.Errorf("unsupported resource class %q", r.Class)
}

// BackendName reports which transport Open would pick for the
// resource. It exists for diagnostics only.
func BackendName(r *resource.Resource) string {
	switch r.Class {
	case resource.ClassTCPIPInstr:
		if r.HiSLIP {
			return "hislip"
		}
		return "vxi11"
	case resource.ClassTCPIPSocket:
		return "socket"
	case resource.ClassSerial:
		return "serial"
	case resource.ClassUSB:
		return "usbtmc"
	case resource.ClassGPIB:
		return "gpib"
	}
	return string(r.Class)
}

// serialOptions maps the configuration onto ASRL line settings,
// keeping defaults for anything unset.
func serialOptions(sc config.SerialConfig) asrl.Options {
	opts := asrl.DefaultOptions()
	if sc.BaudRate > 0 {
		opts.BaudRate = sc.BaudRate
	}
	if sc.DataBits > 0 {
		opts.DataBits = sc.DataBits
	}
	if sc.Parity != "" {
		opts.Parity = sc.Parity
	}
	if sc.StopBits > 0 {
		opts.StopBits = sc.StopBits
	}
	if sc.Terminator != "" {
		opts.Terminator = sc.Terminator
	}
	return opts
}
