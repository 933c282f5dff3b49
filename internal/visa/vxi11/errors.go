// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package vxi11

import (
	"errors"
	"fmt"
	"net"
)

// ErrTimeout is returned when the instrument does not respond within
// the session timeout.
var ErrTimeout = errors.New("vxi11: timeout waiting for instrument response")

// errCodeIOTimeout is the device error code for an I/O timeout.
const errCodeIOTimeout = 15

// Device error code descriptions from the VXI-11 specification.
var deviceErrorNames = map[uint32]string{
	1:  "syntax error",
	3:  "device not accessible",
	4:  "invalid link identifier",
	5:  "parameter error",
	6:  "channel not established",
	8:  "operation not supported",
	9:  "out of resources",
	11: "device locked by another link",
	12: "no lock held by this link",
	15: "I/O timeout",
	17: "I/O error",
	21: "invalid address",
	23: "abort",
	29: "channel already established",
}

// DeviceError is an error code reported by the instrument's VXI-11
// server.
type DeviceError struct {
	Code uint32
}

func (e *DeviceError) Error() string {
	if desc, ok := deviceErrorNames[e.Code]; ok {
		return fmt.Sprintf("vxi11: device error %d: %s", e.Code, desc)
	}
	return fmt.Sprintf("vxi11: device error %d", e.Code)
}

// deviceErr maps a wire error code to a Go error. Zero is success;
// I/O timeouts map to ErrTimeout.
func deviceErr(code uint32) error {
	switch code {
	case 0:
		return nil
	case errCodeIOTimeout:
		return ErrTimeout
	}
	return &DeviceError{Code: code}
}

func mapTimeout(err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ErrTimeout
	}
	return err
}
