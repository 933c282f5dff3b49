// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package hislip

import (
	"encoding/binary"
	"fmt"
	"io"
)

// headerSize is the fixed size of a HiSLIP message header.
const headerSize = 16

// maxInboundPayload caps a single received message. The length field
// is 64-bit on the wire; anything past this limit is treated as a
// corrupt header rather than an allocation request.
const maxInboundPayload = 16 << 20

// message is one HiSLIP message. All header fields are big-endian on
// the wire, preceded by the two-byte "HS" prologue.
type message struct {
	typ     uint8
	control uint8
	param   uint32
	payload []byte
}

// writeMessage writes the header and payload as a single Write call.
func writeMessage(w io.Writer, m message) error {
	buf := make([]byte, headerSize, headerSize+len(m.payload))
	buf[0] = 'H'
	buf[1] = 'S'
	buf[2] = m.typ
	buf[3] = m.control
	binary.BigEndian.PutUint32(buf[4:8], m.param)
	binary.BigEndian.PutUint64(buf[8:16], uint64(len(m.payload)))
	buf = append(buf, m.payload...)
	_, err := w.Write(buf)
	return err
}

// readMessage reads one complete message from r.
func readMessage(r io.Reader) (message, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return message{}, err
	}
	if hdr[0] != 'H' || hdr[1] != 'S' {
		return message{}, fmt.Errorf("hislip: invalid message prologue %q", hdr[:2])
	}

	m := message{
		typ:     hdr[2],
		control: hdr[3],
		param:   binary.BigEndian.Uint32(hdr[4:8]),
	}
	length := binary.BigEndian.Uint64(hdr[8:16])
	if length > maxInboundPayload {
		return message{}, fmt.Errorf("hislip: payload length %d exceeds limit", length)
	}
	if length > 0 {
		m.payload = make([]byte, length)
		if _, err := io.ReadFull(r, m.payload); err != nil {
			return message{}, err
		}
	}
	return m, nil
}

// initializeParam packs the client protocol version and vendor ID
// into the Initialize message parameter.
func initializeParam(version, vendorID uint16) uint32 {
	return uint32(version)<<16 | uint32(vendorID)
}

// parseInitializeResponse unpacks the InitializeResponse parameter:
// the overlap-mode flag, the encryption mode, and the session ID the
// asynchronous channel must present.
func parseInitializeResponse(param uint32) (overlap bool, encryption uint8, sessionID uint16) {
	return param>>24&1 != 0, uint8(param >> 16), uint16(param)
}
