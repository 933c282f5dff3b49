// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package usbtmc implements sessions over the USB Test and
// Measurement Class protocol for USB INSTR resources. Transfers use
// the device's bulk endpoint pair; the kernel's own usbtmc driver is
// detached while the session holds the interface.
package usbtmc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/gousb"
)

// ErrTimeout is returned when the instrument does not respond within
// the session timeout.
var ErrTimeout = errors.New("usbtmc: timeout waiting for instrument response")

// defaultTimeout applies until SetTimeout is called.
const defaultTimeout = 5 * time.Second

// Device is a USBTMC session over one claimed interface.
type Device struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	intf *gousb.Interface
	done func()
	out  *gousb.OutEndpoint
	in   *gousb.InEndpoint

	bTag    uint8
	timeout time.Duration
}

// Open claims the instrument with the given vendor and product IDs.
// A non-empty serial number selects among several attached devices
// with the same IDs.
func Open(vid, pid uint16, serial string) (*Device, error) {
	ctx := gousb.NewContext()
	dev, err := openDevice(ctx, gousb.ID(vid), gousb.ID(pid), serial)
	if err != nil {
		ctx.Close()
		return nil, err
	}

	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("usbtmc: detach kernel driver: %w", err)
	}

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("usbtmc: claim interface: %w", err)
	}

	out, in, err := bulkEndpoints(intf)
	if err != nil {
		done()
		dev.Close()
		ctx.Close()
		return nil, err
	}

	return &Device{
		ctx:     ctx,
		dev:     dev,
		intf:    intf,
		done:    done,
		out:     out,
		in:      in,
		timeout: defaultTimeout,
	}, nil
}

func openDevice(ctx *gousb.Context, vid, pid gousb.ID, serial string) (*gousb.Device, error) {
	if serial == "" {
		dev, err := ctx.OpenDeviceWithVIDPID(vid, pid)
		if err != nil {
			return nil, fmt.Errorf("usbtmc: open device %s:%s: %w", vid, pid, err)
		}
		if dev == nil {
			return nil, fmt.Errorf("usbtmc: no device with ID %s:%s found", vid, pid)
		}
		return dev, nil
	}

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vid && desc.Product == pid
	})
	var match *gousb.Device
	for _, dev := range devs {
		if match == nil {
			if sn, snErr := dev.SerialNumber(); snErr == nil && sn == serial {
				match = dev
				continue
			}
		}
		dev.Close()
	}
	if match == nil {
		if err != nil {
			return nil, fmt.Errorf("usbtmc: open devices %s:%s: %w", vid, pid, err)
		}
		return nil, fmt.Errorf("usbtmc: no device with ID %s:%s and serial number %q found", vid, pid, serial)
	}
	return match, nil
}

// bulkEndpoints finds the bulk endpoint pair of the claimed
// interface.
func bulkEndpoints(intf *gousb.Interface) (*gousb.OutEndpoint, *gousb.InEndpoint, error) {
	outNum, inNum := -1, -1
	for _, ep := range intf.Setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionOut:
			outNum = ep.Number
		case gousb.EndpointDirectionIn:
			inNum = ep.Number
		}
	}
	if outNum < 0 || inNum < 0 {
		return nil, nil, errors.New("usbtmc: interface has no bulk endpoint pair")
	}

	out, err := intf.OutEndpoint(outNum)
	if err != nil {
		return nil, nil, fmt.Errorf("usbtmc: open bulk-out endpoint: %w", err)
	}
	in, err := intf.InEndpoint(inNum)
	if err != nil {
		return nil, nil, fmt.Errorf("usbtmc: open bulk-in endpoint: %w", err)
	}
	return out, in, nil
}

// SetTimeout sets the I/O timeout for subsequent writes and queries.
func (d *Device) SetTimeout(t time.Duration) error {
	if t <= 0 {
		return errors.New("usbtmc: timeout must be positive")
	}
	d.timeout = t
	return nil
}

// Write sends a command line to the instrument.
func (d *Device) Write(cmd string) error {
	ctx, cancel := d.ioContext()
	defer cancel()

	buf := devDepMsgOut(d.nextTag(), []byte(cmd+"\n"))
	if _, err := d.out.WriteContext(ctx, buf); err != nil {
		return mapTimeout(err)
	}
	return nil
}

// Query sends a command line and reads the complete response. The
// trailing line terminator is trimmed.
func (d *Device) Query(cmd string) (string, error) {
	if err := d.Write(cmd); err != nil {
		return "", err
	}
	data, err := d.readMessage()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// readMessage requests device-dependent data until the instrument
// sets EOM. Each request is answered by one DEV_DEP_MSG_IN transfer
// whose header echoes the request tag.
func (d *Device) readMessage() ([]byte, error) {
	var msg []byte
	for {
		part, eom, err := d.readTransfer()
		if err != nil {
			return nil, err
		}
		msg = append(msg, part...)
		if eom {
			return msg, nil
		}
	}
}

func (d *Device) readTransfer() ([]byte, bool, error) {
	ctx, cancel := d.ioContext()
	defer cancel()

	tag := d.nextTag()
	if _, err := d.out.WriteContext(ctx, requestDevDepMsgIn(tag, maxTransferSize)); err != nil {
		return nil, false, mapTimeout(err)
	}

	buf := make([]byte, headerSize+maxTransferSize)
	resp, err := d.readAtLeast(ctx, buf, nil, headerSize)
	if err != nil {
		return nil, false, err
	}

	size, eom, err := parseDevDepMsgIn(resp[:headerSize], tag)
	if err != nil {
		return nil, false, err
	}
	resp, err = d.readAtLeast(ctx, buf, resp, headerSize+size)
	if err != nil {
		return nil, false, err
	}
	return resp[headerSize : headerSize+size], eom, nil
}

// readAtLeast appends bulk-in data to resp until it holds want bytes.
func (d *Device) readAtLeast(ctx context.Context, buf, resp []byte, want int) ([]byte, error) {
	for len(resp) < want {
		n, err := d.in.ReadContext(ctx, buf)
		if err != nil {
			return nil, mapTimeout(err)
		}
		if n == 0 {
			return nil, errors.New("usbtmc: empty bulk-in transfer")
		}
		resp = append(resp, buf[:n]...)
	}
	return resp, nil
}

// nextTag returns the next bulk transfer tag. Tags run from 1 to 255;
// zero is never used.
func (d *Device) nextTag() uint8 {
	d.bTag++
	if d.bTag == 0 {
		d.bTag = 1
	}
	return d.bTag
}

// Close releases the interface and closes the device and the USB
// context. The first error wins.
func (d *Device) Close() error {
	if d.done != nil {
		d.done()
		d.done = nil
	}

	var firstErr error
	if d.dev != nil {
		if err := d.dev.Close(); err != nil {
			firstErr = err
		}
		d.dev = nil
	}
	if d.ctx != nil {
		if err := d.ctx.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		d.ctx = nil
	}
	return firstErr
}

func (d *Device) ioContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d.timeout)
}

func mapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, gousb.ErrorTimeout) {
		return ErrTimeout
	}
	return err
}
