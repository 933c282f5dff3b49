// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package asrl implements serial-port sessions for ASRL resources.
// Line settings come from the bridge configuration; the resource name
// only picks the port.
package asrl

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.bug.st/serial"
)

// ErrTimeout is returned when the instrument does not respond within
// the session timeout.
var ErrTimeout = errors.New("asrl: timeout waiting for instrument response")

// defaultTimeout applies until SetTimeout is called.
const defaultTimeout = 5 * time.Second

// pollTimeout is the per-Read timeout. The session timeout is
// enforced across polls, so a silent instrument cannot block a query
// past its deadline.
const pollTimeout = 100 * time.Millisecond

// Options are the serial line settings for a session.
type Options struct {
	BaudRate   int
	DataBits   int
	Parity     string
	StopBits   int
	Terminator string
}

// DefaultOptions returns the line settings used when the
// configuration does not override them.
func DefaultOptions() Options {
	return Options{
		BaudRate:   9600,
		DataBits:   8,
		Parity:     "none",
		StopBits:   1,
		Terminator: "\n",
	}
}

// Port is a serial session.
type Port struct {
	port       serial.Port
	terminator string
	timeout    time.Duration
}

// Lookup resolves a 1-based port index to a device path using the
// system port list, sorted for a stable order.
func Lookup(index int) (string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return "", fmt.Errorf("asrl: list serial ports: %w", err)
	}
	sort.Strings(ports)
	if index < 1 || index > len(ports) {
		return "", fmt.Errorf("asrl: no serial port with index %d (%d ports present)", index, len(ports))
	}
	return ports[index-1], nil
}

// Open opens the serial device with the given line settings.
func Open(device string, opts Options) (*Port, error) {
	mode, err := modeFor(opts)
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("asrl: open %s: %w", device, err)
	}
	if err := port.SetReadTimeout(pollTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("asrl: set read timeout: %w", err)
	}

	terminator := opts.Terminator
	if terminator == "" {
		terminator = "\n"
	}
	return &Port{
		port:       port,
		terminator: terminator,
		timeout:    defaultTimeout,
	}, nil
}

func modeFor(opts Options) (*serial.Mode, error) {
	parity, err := parseParity(opts.Parity)
	if err != nil {
		return nil, err
	}
	stopBits, err := parseStopBits(opts.StopBits)
	if err != nil {
		return nil, err
	}
	return &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		Parity:   parity,
		StopBits: stopBits,
	}, nil
}

func parseParity(s string) (serial.Parity, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return serial.NoParity, nil
	case "odd":
		return serial.OddParity, nil
	case "even":
		return serial.EvenParity, nil
	}
	return 0, fmt.Errorf("asrl: unknown parity %q (none, odd, or even)", s)
}

func parseStopBits(n int) (serial.StopBits, error) {
	switch n {
	case 0, 1:
		return serial.OneStopBit, nil
	case 2:
		return serial.TwoStopBits, nil
	}
	return 0, fmt.Errorf("asrl: unsupported stop bits %d (1 or 2)", n)
}

// SetTimeout sets the I/O timeout for subsequent writes and queries.
func (p *Port) SetTimeout(d time.Duration) error {
	if d <= 0 {
		return errors.New("asrl: timeout must be positive")
	}
	p.timeout = d
	return nil
}

// Write sends a command line followed by the configured terminator.
func (p *Port) Write(cmd string) error {
	_, err := p.port.Write([]byte(cmd + p.terminator))
	return err
}

// Query sends a command line and reads until the final terminator
// byte arrives or the session timeout passes. The trailing line
// terminator is trimmed.
func (p *Port) Query(cmd string) (string, error) {
	if err := p.Write(cmd); err != nil {
		return "", err
	}

	deadline := time.Now().Add(p.timeout)
	last := p.terminator[len(p.terminator)-1]
	var buf bytes.Buffer
	chunk := make([]byte, 256)
	for {
		n, err := p.port.Read(chunk)
		if err != nil {
			return "", err
		}
		if n > 0 {
			buf.Write(chunk[:n])
			if bytes.IndexByte(chunk[:n], last) >= 0 {
				break
			}
		}
		if time.Now().After(deadline) {
			return "", ErrTimeout
		}
	}
	return strings.TrimRight(buf.String(), "\r\n"), nil
}

// Close closes the port.
func (p *Port) Close() error {
	return p.port.Close()
}
