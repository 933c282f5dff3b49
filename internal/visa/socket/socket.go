// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package socket implements raw TCP sessions for TCPIP SOCKET
// resources. The instrument is expected to terminate responses with a
// newline; commands are sent with a trailing newline appended.
package socket

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// ErrTimeout is returned when the instrument does not respond within
// the session timeout.
var ErrTimeout = errors.New("socket: timeout waiting for instrument response")

// dialTimeout bounds connection establishment. SetTimeout governs I/O
// on the open connection, not the dial.
const dialTimeout = 10 * time.Second

// defaultTimeout applies until SetTimeout is called.
const defaultTimeout = 5 * time.Second

// Conn is a newline-delimited SCPI session over a plain TCP socket.
type Conn struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// Dial opens a TCP connection to the instrument's socket server.
func Dial(host string, port int) (*Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("socket: connect %s: %w", addr, err)
	}
	return &Conn{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: defaultTimeout,
	}, nil
}

// SetTimeout sets the I/O timeout for subsequent writes and queries.
func (c *Conn) SetTimeout(d time.Duration) error {
	if d <= 0 {
		return errors.New("socket: timeout must be positive")
	}
	c.timeout = d
	return nil
}

// Write sends a command line to the instrument.
func (c *Conn) Write(cmd string) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	if _, err := c.conn.Write([]byte(cmd + "\n")); err != nil {
		return mapTimeout(err)
	}
	return nil
}

// Query sends a command line and reads one newline-terminated
// response. The trailing line terminator is trimmed.
func (c *Conn) Query(cmd string) (string, error) {
	if err := c.Write(cmd); err != nil {
		return "", err
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", err
	}
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", mapTimeout(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Close closes the connection.
func (c *Conn) Close() error {
	return c.conn.Close()
}

func mapTimeout(err error) error {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ErrTimeout
	}
	return err
}
