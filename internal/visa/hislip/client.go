// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package hislip

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// dialTimeout bounds connection establishment for both channels.
const dialTimeout = 10 * time.Second

// defaultTimeout applies until SetTimeout is called. It also bounds
// the initialization handshake.
const defaultTimeout = 5 * time.Second

// defaultMaxPayload is the per-message payload limit used until the
// server advertises its own maximum message size.
const defaultMaxPayload = 1 << 20

// Client is a HiSLIP session. All methods must be called from a
// single goroutine.
type Client struct {
	sync   net.Conn
	async  net.Conn
	reader *bufio.Reader

	sessionID  uint16
	messageID  uint32
	maxPayload int
	overlap    bool
	timeout    time.Duration
}

// Dial connects both HiSLIP channels and runs the initialization
// handshake. subAddress is the LAN device name from the resource
// name, e.g. "hislip0".
func Dial(host string, port int, subAddress string) (*Client, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	syncConn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("hislip: connect %s: %w", addr, err)
	}

	c := &Client{
		sync:       syncConn,
		reader:     bufio.NewReader(syncConn),
		messageID:  initialMessageID,
		maxPayload: defaultMaxPayload,
		timeout:    defaultTimeout,
	}
	if err := c.handshake(addr, subAddress); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) handshake(addr, subAddress string) error {
	deadline := time.Now().Add(c.timeout)
	c.sync.SetDeadline(deadline)
	defer c.sync.SetDeadline(time.Time{})

	init := message{
		typ:     msgInitialize,
		param:   initializeParam(protocolVersion, clientVendorID),
		payload: []byte(subAddress),
	}
	if err := writeMessage(c.sync, init); err != nil {
		return fmt.Errorf("hislip: initialize: %w", err)
	}
	resp, err := c.expect(c.reader, msgInitializeResponse)
	if err != nil {
		return fmt.Errorf("hislip: initialize: %w", err)
	}
	overlap, _, sessionID := parseInitializeResponse(resp.param)
	c.overlap = overlap
	c.sessionID = sessionID

	// The asynchronous channel is mandatory even though this client
	// only performs synchronous transfers.
	asyncConn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("hislip: connect async channel: %w", err)
	}
	c.async = asyncConn
	asyncConn.SetDeadline(deadline)
	defer asyncConn.SetDeadline(time.Time{})
	asyncReader := bufio.NewReader(asyncConn)

	if err := writeMessage(asyncConn, message{typ: msgAsyncInitialize, param: uint32(sessionID)}); err != nil {
		return fmt.Errorf("hislip: async initialize: %w", err)
	}
	if _, err := c.expect(asyncReader, msgAsyncInitializeResponse); err != nil {
		return fmt.Errorf("hislip: async initialize: %w", err)
	}

	c.negotiateMaxPayload(asyncConn, asyncReader)
	return nil
}

// negotiateMaxPayload advertises our maximum message size and adopts
// the server's. Failure leaves the default in effect; the session is
// still usable.
func (c *Client) negotiateMaxPayload(conn net.Conn, r *bufio.Reader) {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint64(payload, uint64(c.maxPayload)+headerSize)
	if err := writeMessage(conn, message{typ: msgAsyncMaximumMessageSize, payload: payload}); err != nil {
		return
	}
	resp, err := c.expect(r, msgAsyncMaximumMessageSizeResp)
	if err != nil {
		return
	}
	if len(resp.payload) >= 8 {
		if max := binary.BigEndian.Uint64(resp.payload); max > headerSize && max < 1<<31 {
			c.maxPayload = int(max) - headerSize
		}
	}
}

// expect reads one message and fails on server-reported errors or an
// unexpected type.
func (c *Client) expect(r io.Reader, want uint8) (message, error) {
	msg, err := readMessage(r)
	if err != nil {
		return message{}, mapTimeout(err)
	}
	switch msg.typ {
	case msgFatalError:
		return message{}, &FatalError{Code: msg.control, Message: string(msg.payload)}
	case msgError:
		return message{}, &Error{Code: msg.control, Message: string(msg.payload)}
	case want:
		return msg, nil
	}
	return message{}, fmt.Errorf("hislip: unexpected message type %d, want %d", msg.typ, want)
}

// SetTimeout sets the I/O timeout for subsequent writes and queries.
func (c *Client) SetTimeout(d time.Duration) error {
	if d <= 0 {
		return errors.New("hislip: timeout must be positive")
	}
	c.timeout = d
	return nil
}

// Write sends a command line to the instrument.
func (c *Client) Write(cmd string) error {
	return c.send([]byte(cmd + "\n"))
}

// send transmits one instrument message, split into Data chunks when
// it exceeds the negotiated maximum payload. Each chunk consumes a
// message ID.
func (c *Client) send(data []byte) error {
	if err := c.sync.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	for len(data) > c.maxPayload {
		chunk := message{
			typ:     msgData,
			control: ctrlRMTDelivered,
			param:   c.nextMessageID(),
			payload: data[:c.maxPayload],
		}
		if err := writeMessage(c.sync, chunk); err != nil {
			return mapTimeout(err)
		}
		data = data[c.maxPayload:]
	}
	final := message{
		typ:     msgDataEnd,
		control: ctrlRMTDelivered,
		param:   c.nextMessageID(),
		payload: data,
	}
	if err := writeMessage(c.sync, final); err != nil {
		return mapTimeout(err)
	}
	return nil
}

func (c *Client) nextMessageID() uint32 {
	id := c.messageID
	c.messageID += 2
	return id
}

// Query sends a command line and reads the complete response, which
// may arrive as several Data messages followed by DataEnd. The
// trailing line terminator is trimmed.
func (c *Client) Query(cmd string) (string, error) {
	if err := c.Write(cmd); err != nil {
		return "", err
	}
	if err := c.sync.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for {
		msg, err := readMessage(c.reader)
		if err != nil {
			return "", mapTimeout(err)
		}
		switch msg.typ {
		case msgData:
			buf.Write(msg.payload)
		case msgDataEnd:
			buf.Write(msg.payload)
			return strings.TrimRight(buf.String(), "\r\n"), nil
		case msgInterrupted:
			return "", ErrInterrupted
		case msgFatalError:
			return "", &FatalError{Code: msg.control, Message: string(msg.payload)}
		case msgError:
			return "", &Error{Code: msg.control, Message: string(msg.payload)}
		default:
			return "", fmt.Errorf("hislip: unexpected message type %d during read", msg.typ)
		}
	}
}

// Close closes both channels. The first error wins.
func (c *Client) Close() error {
	var firstErr error
	if c.async != nil {
		if err := c.async.Close(); err != nil {
			firstErr = err
		}
		c.async = nil
	}
	if c.sync != nil {
		if err := c.sync.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.sync = nil
	}
	return firstErr
}

func mapTimeout(err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ErrTimeout
	}
	return err
}
