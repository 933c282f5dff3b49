// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package vxi11

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

const (
	rpcVersion   = 2
	msgTypeCall  = 0
	msgTypeReply = 1

	portmapProgram     = 100000
	portmapVersion     = 2
	portmapProcGetPort = 3
	portmapPort        = 111
	protoTCP           = 6

	// maxRecordSize caps one reassembled RPC record.
	maxRecordSize = 1 << 24
)

// rpcClient performs ONC RPC calls over the record-marking TCP
// transport.
type rpcClient struct {
	conn    net.Conn
	xid     uint32
	timeout time.Duration
}

func newRPCClient(conn net.Conn) *rpcClient {
	return &rpcClient{
		conn:    conn,
		xid:     uint32(time.Now().UnixNano()),
		timeout: defaultTimeout,
	}
}

// call sends one RPC call and returns the result bytes that follow
// the accepted reply header.
func (c *rpcClient) call(program, version, procedure uint32, args []byte) ([]byte, error) {
	c.xid++

	var enc encoder
	enc.writeUint32(c.xid)
	enc.writeUint32(msgTypeCall)
	enc.writeUint32(rpcVersion)
	enc.writeUint32(program)
	enc.writeUint32(version)
	enc.writeUint32(procedure)
	// AUTH_NULL credential and verifier.
	enc.writeUint32(0)
	enc.writeUint32(0)
	enc.writeUint32(0)
	enc.writeUint32(0)
	body := append(enc.bytes(), args...)

	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}

	// One record mark per call; the high bit flags the last fragment.
	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame, 0x80000000|uint32(len(body)))
	copy(frame[4:], body)
	if _, err := c.conn.Write(frame); err != nil {
		return nil, mapTimeout(err)
	}

	reply, err := c.readRecord()
	if err != nil {
		return nil, err
	}
	return checkReply(c.xid, reply)
}

// readRecord reassembles one RPC record from its fragments.
func (c *rpcClient) readRecord() ([]byte, error) {
	var record []byte
	for {
		var mark [4]byte
		if _, err := io.ReadFull(c.conn, mark[:]); err != nil {
			return nil, mapTimeout(err)
		}
		m := binary.BigEndian.Uint32(mark[:])
		size := m & 0x7fffffff
		if size > maxRecordSize {
			return nil, fmt.Errorf("vxi11: rpc fragment of %d bytes exceeds limit", size)
		}
		frag := make([]byte, size)
		if _, err := io.ReadFull(c.conn, frag); err != nil {
			return nil, mapTimeout(err)
		}
		record = append(record, frag...)
		if m&0x80000000 != 0 {
			return record, nil
		}
	}
}

// checkReply validates the RPC reply header and returns the bytes of
// the call result.
func checkReply(xid uint32, reply []byte) ([]byte, error) {
	d := newDecoder(reply)
	gotXID := d.readUint32()
	mtype := d.readUint32()
	replyStat := d.readUint32()
	if d.err != nil {
		return nil, d.err
	}
	if gotXID != xid {
		return nil, fmt.Errorf("vxi11: rpc reply xid %d, want %d", gotXID, xid)
	}
	if mtype != msgTypeReply {
		return nil, fmt.Errorf("vxi11: unexpected rpc message type %d", mtype)
	}
	if replyStat != 0 {
		return nil, fmt.Errorf("vxi11: rpc call denied (status %d)", replyStat)
	}

	d.readUint32() // verifier flavor
	d.readOpaque() // verifier body
	acceptStat := d.readUint32()
	if d.err != nil {
		return nil, d.err
	}
	if acceptStat != 0 {
		return nil, fmt.Errorf("vxi11: rpc call failed (accept status %d)", acceptStat)
	}
	return d.rest(), nil
}

// getPort asks the host's portmapper where the VXI-11 core channel
// listens.
func getPort(host string, timeout time.Duration) (int, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(portmapPort))
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return 0, fmt.Errorf("vxi11: connect portmapper %s: %w", addr, err)
	}
	defer conn.Close()

	rpc := newRPCClient(conn)
	rpc.timeout = timeout

	var enc encoder
	enc.writeUint32(coreProgram)
	enc.writeUint32(coreVersion)
	enc.writeUint32(protoTCP)
	enc.writeUint32(0)
	reply, err := rpc.call(portmapProgram, portmapVersion, portmapProcGetPort, enc.bytes())
	if err != nil {
		return 0, err
	}

	d := newDecoder(reply)
	port := d.readUint32()
	if d.err != nil {
		return 0, d.err
	}
	if port == 0 {
		return 0, fmt.Errorf("vxi11: host %s has no VXI-11 core service registered", host)
	}
	return int(port), nil
}
