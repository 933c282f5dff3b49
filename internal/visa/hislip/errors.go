// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package hislip

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when the instrument does not respond
	// within the session timeout.
	ErrTimeout = errors.New("hislip: timeout waiting for instrument response")

	// ErrInterrupted is returned when the server cuts a response
	// short with an Interrupted message.
	ErrInterrupted = errors.New("hislip: response interrupted by server")
)

// Fatal error code descriptions from IVI-6.1 table 5.
var fatalErrorNames = map[uint8]string{
	0: "unidentified error",
	1: "poorly formed message header",
	2: "attempt to use connection without initialization",
	3: "maximum number of clients exceeded",
	4: "secure connection failed",
	5: "secure connection required but not established",
	6: "invalid initialization sequence",
	7: "server is shutting down",
}

// Non-fatal error code descriptions from IVI-6.1 table 6.
var errorNames = map[uint8]string{
	0: "unidentified error",
	1: "unrecognized message type",
	2: "unrecognized control code",
	3: "unrecognized vendor-defined message",
	4: "message too large",
	5: "authentication mechanism failed",
}

// FatalError is a server-reported fatal error. The connection is
// unusable once one arrives.
type FatalError struct {
	Code    uint8
	Message string
}

func (e *FatalError) Error() string {
	desc, ok := fatalErrorNames[e.Code]
	if !ok {
		desc = fmt.Sprintf("unknown fatal error code %d", e.Code)
	}
	if e.Message != "" {
		return fmt.Sprintf("hislip fatal error %d: %s (%s)", e.Code, desc, e.Message)
	}
	return fmt.Sprintf("hislip fatal error %d: %s", e.Code, desc)
}

// Error is a server-reported non-fatal error.
type Error struct {
	Code    uint8
	Message string
}

func (e *Error) Error() string {
	desc, ok := errorNames[e.Code]
	if !ok {
		desc = fmt.Sprintf("unknown error code %d", e.Code)
	}
	if e.Message != "" {
		return fmt.Sprintf("hislip error %d: %s (%s)", e.Code, desc, e.Message)
	}
	return fmt.Sprintf("hislip error %d: %s", e.Code, desc)
}
