// Copyright (c) 2025 Visabridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package hislip implements the client side of the HiSLIP protocol
// (IVI-6.1) for TCPIP INSTR resources whose LAN device name selects
// it. Only synchronized-mode message exchange is implemented; the
// mandatory asynchronous channel is established and then left idle.
package hislip

const (
	// protocolVersion encodes major.minor as major<<8 | minor.
	protocolVersion uint16 = 2<<8 | 0

	// clientVendorID identifies the client in the Initialize
	// exchange. Generic clients send zero.
	clientVendorID uint16 = 0

	// initialMessageID seeds the synchronous channel message counter,
	// which advances by 2 per message sent.
	initialMessageID uint32 = 0xffffff00
)

// Message types used by the client, from IVI-6.1 table 4.
const (
	msgInitialize                  uint8 = 0
	msgInitializeResponse          uint8 = 1
	msgFatalError                  uint8 = 2
	msgError                       uint8 = 3
	msgData                        uint8 = 6
	msgDataEnd                     uint8 = 7
	msgInterrupted                 uint8 = 13
	msgAsyncMaximumMessageSize     uint8 = 15
	msgAsyncMaximumMessageSizeResp uint8 = 16
	msgAsyncInitialize             uint8 = 17
	msgAsyncInitializeResponse     uint8 = 18
)

// ctrlRMTDelivered is the RMT-delivered bit in Data and DataEnd
// control codes.
const ctrlRMTDelivered uint8 = 0x01
