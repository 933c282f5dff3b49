// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package usbtmc

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestDevDepMsgOut(t *testing.T) {
	tests := []struct {
		name     string
		tag      uint8
		payload  string
		wantSize int
	}{
		{
			name:     "aligned payload",
			tag:      1,
			payload:  "SYST:ERR", // 8 bytes, no padding
			wantSize: headerSize + 8,
		},
		{
			name:     "padded payload",
			tag:      9,
			payload:  "*IDN?\n", // 6 bytes, padded to 8
			wantSize: headerSize + 8,
		},
		{
			name:     "single byte",
			tag:      255,
			payload:  "x",
			wantSize: headerSize + 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := devDepMsgOut(tt.tag, []byte(tt.payload))

			if len(buf) != tt.wantSize {
				t.Errorf("transfer size = %d, want %d", len(buf), tt.wantSize)
			}
			if buf[0] != msgIDDevDepMsgOut {
				t.Errorf("message ID = %d, want %d", buf[0], msgIDDevDepMsgOut)
			}
			if buf[1] != tt.tag {
				t.Errorf("bTag = %d, want %d", buf[1], tt.tag)
			}
			if buf[2] != ^tt.tag {
				t.Errorf("bTagInverse = %d, want %d", buf[2], ^tt.tag)
			}
			if got := binary.LittleEndian.Uint32(buf[4:8]); got != uint32(len(tt.payload)) {
				t.Errorf("transfer size field = %d, want %d", got, len(tt.payload))
			}
			if buf[8]&transferAttrEOM == 0 {
				t.Error("EOM attribute not set")
			}
			if !bytes.Equal(buf[headerSize:headerSize+len(tt.payload)], []byte(tt.payload)) {
				t.Errorf("payload = %q, want %q", buf[headerSize:headerSize+len(tt.payload)], tt.payload)
			}
		})
	}
}

func TestRequestDevDepMsgIn(t *testing.T) {
	buf := requestDevDepMsgIn(7, maxTransferSize)

	if len(buf) != headerSize {
		t.Fatalf("request size = %d, want %d", len(buf), headerSize)
	}
	if buf[0] != msgIDRequestDevDepMsgIn {
		t.Errorf("message ID = %d, want %d", buf[0], msgIDRequestDevDepMsgIn)
	}
	if buf[1] != 7 || buf[2] != ^uint8(7) {
		t.Errorf("tag bytes = %d/%d, want 7/%d", buf[1], buf[2], ^uint8(7))
	}
	if got := binary.LittleEndian.Uint32(buf[4:8]); got != maxTransferSize {
		t.Errorf("transfer size field = %d, want %d", got, maxTransferSize)
	}
}

func TestParseDevDepMsgIn(t *testing.T) {
	header := func(msgID, tag uint8, size uint32, attrs uint8) []byte {
		hdr := make([]byte, headerSize)
		hdr[0] = msgID
		hdr[1] = tag
		hdr[2] = ^tag
		binary.LittleEndian.PutUint32(hdr[4:8], size)
		hdr[8] = attrs
		return hdr
	}

	badComplement := header(msgIDDevDepMsgIn, 5, 4, transferAttrEOM)
	badComplement[2] = badComplement[1]

	tests := []struct {
		name        string
		hdr         []byte
		tag         uint8
		wantSize    int
		wantEOM     bool
		expectError bool
	}{
		{
			name:     "complete message",
			hdr:      header(msgIDDevDepMsgIn, 3, 28, transferAttrEOM),
			tag:      3,
			wantSize: 28,
			wantEOM:  true,
		},
		{
			name:     "partial message",
			hdr:      header(msgIDDevDepMsgIn, 4, 512, 0),
			tag:      4,
			wantSize: 512,
		},
		{
			name:        "short header",
			hdr:         []byte{msgIDDevDepMsgIn, 5},
			tag:         5,
			expectError: true,
		},
		{
			name:        "wrong message ID",
			hdr:         header(msgIDDevDepMsgOut, 6, 4, 0),
			tag:         6,
			expectError: true,
		},
		{
			name:        "tag mismatch",
			hdr:         header(msgIDDevDepMsgIn, 8, 4, 0),
			tag:         9,
			expectError: true,
		},
		{
			name:        "tag complement mismatch",
			hdr:         badComplement,
			tag:         5,
			expectError: true,
		},
		{
			name:        "oversized transfer",
			hdr:         header(msgIDDevDepMsgIn, 2, maxTransferSize+1, 0),
			tag:         2,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, eom, err := parseDevDepMsgIn(tt.hdr, tt.tag)

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
			if size != tt.wantSize {
				t.Errorf("size = %d, want %d", size, tt.wantSize)
			}
			if eom != tt.wantEOM {
				t.Errorf("eom = %t, want %t", eom, tt.wantEOM)
			}
		})
	}
}

func TestNextTagSkipsZero(t *testing.T) {
	d := &Device{bTag: 254}

	if got := d.nextTag(); got != 255 {
		t.Errorf("nextTag() = %d, want 255", got)
	}
	if got := d.nextTag(); got != 1 {
		t.Errorf("nextTag() after wrap = %d, want 1", got)
	}
}
