// Package wire implements the binary command/telemetry protocol spoken
// between the flight controller and a host over a serial link.
package wire

// A frame is a fixed-size block:
//
//	[0]              start byte 0xAA
//	[1]              message type
//	[2]              declared payload length (<= MaxPayload)
//	[3..3+MaxPayload) payload, zero padded past the declared length
//	[3+MaxPayload]   check byte: mod-256 sum of bytes [0, 3+length)
//
// All multi-byte payload fields are little-endian. Both peers always
// transmit and expect FrameSize bytes per frame; the declared length
// only bounds the checksum and the decoded payload.
//
// Producer: host commands in, controller telemetry out.
