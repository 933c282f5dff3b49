// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package vxi11 implements the client side of the VXI-11 core channel
// for TCPIP INSTR resources. The core port is discovered through the
// host's portmapper, so instruments only need their standard RPC
// services running.
package vxi11

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	coreProgram = 0x0607af
	coreVersion = 1

	procCreateLink  = 10
	procDeviceWrite = 11
	procDeviceRead  = 12
	procDestroyLink = 23
)

// device_write flags and device_read reason bits.
const (
	flagEnd = 8

	reasonReqcnt = 1
	reasonChr    = 2
	reasonEnd    = 4
)

// requestSize is how much the instrument is asked to return per
// device_read call.
const requestSize = 65536

// dialTimeout bounds connection establishment for the portmapper and
// core channel.
const dialTimeout = 10 * time.Second

// defaultTimeout applies until SetTimeout is called.
const defaultTimeout = 5 * time.Second

// deadlineSlack keeps the socket deadline behind the instrument's own
// I/O timeout, so a slow instrument reports the timeout itself via a
// device error instead of a dropped connection.
const deadlineSlack = 2 * time.Second

// Client is a VXI-11 session holding one device link.
type Client struct {
	rpc         *rpcClient
	lid         uint32
	maxRecvSize uint32
	timeout     time.Duration
}

// Dial locates the instrument's core channel through the portmapper,
// connects, and links to the named device, e.g. "inst0".
func Dial(host, device string) (*Client, error) {
	port, err := getPort(host, defaultTimeout)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("vxi11: connect core channel %s: %w", addr, err)
	}

	c := &Client{rpc: newRPCClient(conn), timeout: defaultTimeout}
	if err := c.createLink(device); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) createLink(device string) error {
	var enc encoder
	enc.writeUint32(uint32(os.Getpid()))
	enc.writeBool(false) // no exclusive lock
	enc.writeUint32(0)   // lock timeout
	enc.writeString(device)
	reply, err := c.rpc.call(coreProgram, coreVersion, procCreateLink, enc.bytes())
	if err != nil {
		return err
	}

	d := newDecoder(reply)
	errCode := d.readUint32()
	lid := d.readUint32()
	d.readUint32() // abort channel port, unused
	maxRecv := d.readUint32()
	if d.err != nil {
		return d.err
	}
	if err := deviceErr(errCode); err != nil {
		return fmt.Errorf("vxi11: create link to %q: %w", device, err)
	}

	c.lid = lid
	c.maxRecvSize = maxRecv
	if c.maxRecvSize == 0 {
		c.maxRecvSize = 1024
	}
	return nil
}

// SetTimeout sets the I/O timeout for subsequent writes and queries.
// The instrument enforces it per device_write/device_read call; the
// socket deadline sits slightly behind as a backstop.
func (c *Client) SetTimeout(d time.Duration) error {
	if d <= 0 {
		return errors.New("vxi11: timeout must be positive")
	}
	c.timeout = d
	c.rpc.timeout = d + deadlineSlack
	return nil
}

func (c *Client) ioTimeoutMillis() uint32 {
	ms := c.timeout.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	if ms > math.MaxUint32 {
		ms = math.MaxUint32
	}
	return uint32(ms)
}

// Write sends a command line to the instrument, split into chunks the
// link accepts. The END flag rides on the last chunk only.
func (c *Client) Write(cmd string) error {
	data := []byte(cmd + "\n")
	max := int(c.maxRecvSize)
	for len(data) > 0 {
		chunk := data
		if len(chunk) > max {
			chunk = data[:max]
		}
		data = data[len(chunk):]

		var flags uint32
		if len(data) == 0 {
			flags = flagEnd
		}
		if err := c.deviceWrite(chunk, flags); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) deviceWrite(chunk []byte, flags uint32) error {
	var enc encoder
	enc.writeUint32(c.lid)
	enc.writeUint32(c.ioTimeoutMillis())
	enc.writeUint32(0) // lock timeout
	enc.writeUint32(flags)
	enc.writeOpaque(chunk)
	reply, err := c.rpc.call(coreProgram, coreVersion, procDeviceWrite, enc.bytes())
	if err != nil {
		return err
	}

	d := newDecoder(reply)
	errCode := d.readUint32()
	d.readUint32() // bytes accepted
	if d.err != nil {
		return d.err
	}
	return deviceErr(errCode)
}

// Query sends a command line and reads until the instrument signals
// the end of the response. The trailing line terminator is trimmed.
func (c *Client) Query(cmd string) (string, error) {
	if err := c.Write(cmd); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for {
		data, reason, err := c.deviceRead()
		if err != nil {
			return "", err
		}
		buf.Write(data)
		if reason&(reasonEnd|reasonChr) != 0 {
			return strings.TrimRight(buf.String(), "\r\n"), nil
		}
	}
}

func (c *Client) deviceRead() ([]byte, uint32, error) {
	var enc encoder
	enc.writeUint32(c.lid)
	enc.writeUint32(requestSize)
	enc.writeUint32(c.ioTimeoutMillis())
	enc.writeUint32(0) // lock timeout
	enc.writeUint32(0) // flags
	enc.writeUint32(0) // termination character
	reply, err := c.rpc.call(coreProgram, coreVersion, procDeviceRead, enc.bytes())
	if err != nil {
		return nil, 0, err
	}

	d := newDecoder(reply)
	errCode := d.readUint32()
	reason := d.readUint32()
	data := d.readOpaque()
	if d.err != nil {
		return nil, 0, d.err
	}
	if err := deviceErr(errCode); err != nil {
		return nil, 0, err
	}
	return data, reason, nil
}

// Close releases the device link and closes the core channel. The
// link error, if any, wins over a socket close error.
func (c *Client) Close() error {
	var enc encoder
	enc.writeUint32(c.lid)
	reply, err := c.rpc.call(coreProgram, coreVersion, procDestroyLink, enc.bytes())
	if err == nil {
		d := newDecoder(reply)
		code := d.readUint32()
		if d.err != nil {
			err = d.err
		} else {
			err = deviceErr(code)
		}
	}

	if closeErr := c.rpc.conn.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
