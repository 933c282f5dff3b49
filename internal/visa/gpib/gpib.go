// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package gpib implements GPIB sessions through a Prologix GPIB-USB
// controller sitting on a serial port. The resource name carries the
// primary address; which port the controller occupies comes from the
// bridge configuration.
package gpib

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gotmc/prologix"
	"github.com/gotmc/prologix/driver/vcp"
)

// Prologix firmware read timeout bounds, in milliseconds.
const (
	minReadTimeoutMillis = 1
	maxReadTimeoutMillis = 3000
)

// serialDriver is the slice of the VCP driver the session uses.
type serialDriver interface {
	io.ReadWriter
	Flush() error
	Close() error
}

// Instrument is a GPIB session through a Prologix controller.
type Instrument struct {
	port serialDriver
	ctrl *prologix.Controller
}

// Open connects to the Prologix controller on the serial device and
// addresses the instrument at addr.
func Open(device string, addr int) (*Instrument, error) {
	drv, err := vcp.NewVCP(device)
	if err != nil {
		return nil, fmt.Errorf("gpib: open controller port %s: %w", device, err)
	}
	ctrl, err := prologix.NewController(drv, addr, false)
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("gpib: address instrument %d: %w", addr, err)
	}
	return &Instrument{port: drv, ctrl: ctrl}, nil
}

// SetTimeout sets the controller's read timeout. The firmware accepts
// 1 to 3000 milliseconds; values outside that range are clamped.
func (g *Instrument) SetTimeout(d time.Duration) error {
	if d <= 0 {
		return errors.New("gpib: timeout must be positive")
	}
	// "++" lines address the controller itself, not the instrument,
	// so this goes straight to the port.
	if _, err := fmt.Fprintf(g.port, "++read_tmo_ms %d\n", clampReadTimeout(d)); err != nil {
		return err
	}
	return nil
}

func clampReadTimeout(d time.Duration) int64 {
	ms := d.Milliseconds()
	if ms < minReadTimeoutMillis {
		return minReadTimeoutMillis
	}
	if ms > maxReadTimeoutMillis {
		return maxReadTimeoutMillis
	}
	return ms
}

// Write sends a command line to the instrument.
func (g *Instrument) Write(cmd string) error {
	return g.ctrl.Command(cmd)
}

// Query sends a command line and reads the response. io.EOF marks the
// end of the controller's read window after a complete response, not
// a failure. The trailing line terminator is trimmed.
func (g *Instrument) Query(cmd string) (string, error) {
	resp, err := g.ctrl.Query(cmd)
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(resp, "\r\n"), nil
}

// Close returns the instrument to front panel control, then flushes
// and closes the controller port. The first error wins.
func (g *Instrument) Close() error {
	var firstErr error
	if err := g.ctrl.FrontPanel(true); err != nil {
		firstErr = err
	}
	if err := g.port.Flush(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := g.port.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
