package wire

import "errors"

var (
	// ErrInvalidLength indicates a declared payload length above MaxPayload.
	ErrInvalidLength = errors.New("invalid length")
	// ErrChecksum indicates a check byte mismatch on a completed frame.
	ErrChecksum = errors.New("CRC mismatch")
	// ErrPayloadSize indicates a payload too short for its declared type.
	ErrPayloadSize = errors.New("payload size mismatch")
)
