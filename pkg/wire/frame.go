package wire

import (
	"fmt"
	"io"
)

// Wire format constants. A frame always occupies FrameSize bytes on the
// wire: the payload area is padded to MaxPayload regardless of the
// declared payload length.
const (
	StartByte byte = 0xAA

	MaxPayload = 100
	HeaderSize = 3
	FrameSize  = HeaderSize + MaxPayload + 1
)

// MsgType identifies the kind of a frame.
type MsgType byte

// Message types.
const (
	MsgArming       MsgType = 0
	MsgThrust       MsgType = 1
	MsgPitch        MsgType = 2
	MsgRoll         MsgType = 3
	MsgYaw          MsgType = 4
	MsgMotor1       MsgType = 5
	MsgMotor2       MsgType = 6
	MsgMotor3       MsgType = 7
	MsgMotor4       MsgType = 8
	MsgSampleUpdate MsgType = 10
	MsgCalibrateMag MsgType = 20
	MsgSpecialCmd   MsgType = 21
)

// String implements fmt.Stringer.
func (t MsgType) String() string {
	switch t {
	case MsgArming:
		return "arming"
	case MsgThrust:
		return "thrust"
	case MsgPitch:
		return "pitch"
	case MsgRoll:
		return "roll"
	case MsgYaw:
		return "yaw"
	case MsgMotor1, MsgMotor2, MsgMotor3, MsgMotor4:
		return fmt.Sprintf("motor%d", t-MsgMotor1+1)
	case MsgSampleUpdate:
		return "sample"
	case MsgCalibrateMag:
		return "calibrate-mag"
	case MsgSpecialCmd:
		return "special"
	}
	return fmt.Sprintf("type-%d", byte(t))
}

// Checksum computes the mod-256 byte sum used as the frame check value.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// Frame is one complete protocol message.
type Frame struct {
	Type    MsgType
	Payload []byte
}

// NewFrame creates a Frame and validates the payload length.
func NewFrame(t MsgType, payload []byte) (*Frame, error) {
	if len(payload) > MaxPayload {
		return nil, ErrInvalidLength
	}
	return &Frame{Type: t, Payload: payload}, nil
}

// Bytes returns encoded bytes for sending. The result is always
// FrameSize bytes; the check byte covers header and declared payload
// only, not the padding.
func (f *Frame) Bytes() []byte {
	b := make([]byte, FrameSize)
	b[0] = StartByte
	b[1] = byte(f.Type)
	b[2] = byte(len(f.Payload))
	copy(b[HeaderSize:], f.Payload)
	b[FrameSize-1] = Checksum(b[:HeaderSize+len(f.Payload)])
	return b
}

// WriteTo writes encoded bytes.
func (f *Frame) WriteTo(w io.Writer) (int, error) {
	return w.Write(f.Bytes())
}
