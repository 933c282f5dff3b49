// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package usbtmc

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// headerSize is the fixed size of a USBTMC bulk transfer header.
const headerSize = 12

// Bulk message IDs from the USBTMC specification. DEV_DEP_MSG_IN
// shares its value with the request that solicits it; direction tells
// them apart.
const (
	msgIDDevDepMsgOut       uint8 = 1
	msgIDRequestDevDepMsgIn uint8 = 2
	msgIDDevDepMsgIn        uint8 = 2
)

// transferAttrEOM is bit 0 of bmTransferAttributes: the transfer ends
// the message.
const transferAttrEOM = 0x01

// maxTransferSize is how much response data one REQUEST_DEV_DEP_MSG_IN
// asks for.
const maxTransferSize = 1 << 20

// devDepMsgOut builds a DEV_DEP_MSG_OUT transfer carrying payload with
// EOM set. The payload is padded to a four-byte boundary; the header's
// transfer size states the unpadded length.
func devDepMsgOut(tag uint8, payload []byte) []byte {
	pad := (4 - len(payload)%4) % 4
	buf := make([]byte, headerSize+len(payload)+pad)
	buf[0] = msgIDDevDepMsgOut
	buf[1] = tag
	buf[2] = ^tag
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payload)))
	buf[8] = transferAttrEOM
	copy(buf[headerSize:], payload)
	return buf
}

// requestDevDepMsgIn builds a REQUEST_DEV_DEP_MSG_IN transfer asking
// for up to max bytes of response data.
func requestDevDepMsgIn(tag uint8, max int) []byte {
	buf := make([]byte, headerSize)
	buf[0] = msgIDRequestDevDepMsgIn
	buf[1] = tag
	buf[2] = ^tag
	binary.LittleEndian.PutUint32(buf[4:8], uint32(max))
	return buf
}

// parseDevDepMsgIn validates a DEV_DEP_MSG_IN header against the
// request tag and returns the payload size and the EOM flag.
func parseDevDepMsgIn(hdr []byte, tag uint8) (int, bool, error) {
	if len(hdr) < headerSize {
		return 0, false, errors.New("usbtmc: short bulk-in header")
	}
	if hdr[0] != msgIDDevDepMsgIn {
		return 0, false, fmt.Errorf("usbtmc: unexpected bulk-in message ID %d", hdr[0])
	}
	if hdr[1] != tag {
		return 0, false, fmt.Errorf("usbtmc: bulk-in tag %d does not match request tag %d", hdr[1], tag)
	}
	if hdr[2] != ^tag {
		return 0, false, fmt.Errorf("usbtmc: bulk-in tag complement %d does not match tag %d", hdr[2], tag)
	}
	size := binary.LittleEndian.Uint32(hdr[4:8])
	if size > maxTransferSize {
		return 0, false, fmt.Errorf("usbtmc: bulk-in transfer size %d exceeds request", size)
	}
	return int(size), hdr[8]&transferAttrEOM != 0, nil
}
