// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package vxi11

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// encoder builds the XDR body of an RPC call. All integers are
// big-endian and opaque data is padded to four-byte alignment.
type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) writeBool(v bool) {
	if v {
		e.writeUint32(1)
	} else {
		e.writeUint32(0)
	}
}

func (e *encoder) writeOpaque(data []byte) {
	e.writeUint32(uint32(len(data)))
	e.buf.Write(data)
	if pad := (4 - len(data)%4) % 4; pad > 0 {
		e.buf.Write(make([]byte, pad))
	}
}

func (e *encoder) writeString(s string) {
	e.writeOpaque([]byte(s))
}

func (e *encoder) bytes() []byte {
	return e.buf.Bytes()
}

// decoder reads XDR values from a reply body. The first read failure
// latches; callers check err once after pulling the fields they need.
type decoder struct {
	r   *bytes.Reader
	err error
}

func newDecoder(b []byte) *decoder {
	return &decoder{r: bytes.NewReader(b)}
}

func (d *decoder) readUint32() uint32 {
	if d.err != nil {
		return 0
	}
	var b [4]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		d.err = errors.New("vxi11: truncated rpc reply")
		return 0
	}
	return binary.BigEndian.Uint32(b[:])
}

func (d *decoder) readOpaque() []byte {
	n := d.readUint32()
	if d.err != nil {
		return nil
	}
	if int64(n) > int64(d.r.Len()) {
		d.err = errors.New("vxi11: opaque length exceeds reply size")
		return nil
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(d.r, data); err != nil {
		d.err = errors.New("vxi11: truncated rpc reply")
		return nil
	}
	if pad := (4 - n%4) % 4; pad > 0 {
		d.r.Seek(int64(pad), io.SeekCurrent)
	}
	return data
}

// rest returns the bytes that follow the values read so far.
func (d *decoder) rest() []byte {
	if d.err != nil {
		return nil
	}
	data := make([]byte, d.r.Len())
	io.ReadFull(d.r, data)
	return data
}
