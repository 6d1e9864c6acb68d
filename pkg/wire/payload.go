package wire

import (
	"encoding/binary"
	"math"
)

// Payload sizes in bytes.
const (
	ArmingSize       = 1
	ThrustSize       = 16
	AxisSetpointSize = 4
	SingleMotorSize  = 4
	SpecialCmdSize   = 2
	SampleSize       = 24
)

// Arming commands arm (1) or disarm (0); other values are rejected by
// the dispatcher.
type Arming struct {
	Arm byte
}

// Encode returns the little-endian payload bytes.
func (a Arming) Encode() []byte {
	return []byte{a.Arm}
}

// DecodeArming decodes an Arming payload.
func DecodeArming(p []byte) (Arming, error) {
	if len(p) < ArmingSize {
		return Arming{}, ErrPayloadSize
	}
	return Arming{Arm: p[0]}, nil
}

// Thrust carries a 4-channel thrust setpoint.
type Thrust struct {
	M1, M2, M3, M4 float32
}

// Encode returns the little-endian payload bytes.
func (t Thrust) Encode() []byte {
	b := make([]byte, ThrustSize)
	putFloat32(b[0:], t.M1)
	putFloat32(b[4:], t.M2)
	putFloat32(b[8:], t.M3)
	putFloat32(b[12:], t.M4)
	return b
}

// DecodeThrust decodes a Thrust payload.
func DecodeThrust(p []byte) (Thrust, error) {
	if len(p) < ThrustSize {
		return Thrust{}, ErrPayloadSize
	}
	return Thrust{
		M1: float32At(p, 0),
		M2: float32At(p, 4),
		M3: float32At(p, 8),
		M4: float32At(p, 12),
	}, nil
}

// AxisSetpoint carries a single-axis setpoint (pitch, roll or yaw).
type AxisSetpoint struct {
	Value float32
}

// Encode returns the little-endian payload bytes.
func (s AxisSetpoint) Encode() []byte {
	b := make([]byte, AxisSetpointSize)
	putFloat32(b, s.Value)
	return b
}

// DecodeAxisSetpoint decodes an AxisSetpoint payload.
func DecodeAxisSetpoint(p []byte) (AxisSetpoint, error) {
	if len(p) < AxisSetpointSize {
		return AxisSetpoint{}, ErrPayloadSize
	}
	return AxisSetpoint{Value: float32At(p, 0)}, nil
}

// SingleMotor carries a setpoint for one motor.
type SingleMotor struct {
	Value float32
}

// Encode returns the little-endian payload bytes.
func (s SingleMotor) Encode() []byte {
	b := make([]byte, SingleMotorSize)
	putFloat32(b, s.Value)
	return b
}

// DecodeSingleMotor decodes a SingleMotor payload.
func DecodeSingleMotor(p []byte) (SingleMotor, error) {
	if len(p) < SingleMotorSize {
		return SingleMotor{}, ErrPayloadSize
	}
	return SingleMotor{Value: float32At(p, 0)}, nil
}

// SpecialCmd carries an opaque 16-bit value for controller consumption.
type SpecialCmd struct {
	Command uint16
}

// Encode returns the little-endian payload bytes.
func (s SpecialCmd) Encode() []byte {
	b := make([]byte, SpecialCmdSize)
	binary.LittleEndian.PutUint16(b, s.Command)
	return b
}

// DecodeSpecialCmd decodes a SpecialCmd payload.
func DecodeSpecialCmd(p []byte) (SpecialCmd, error) {
	if len(p) < SpecialCmdSize {
		return SpecialCmd{}, ErrPayloadSize
	}
	return SpecialCmd{Command: binary.LittleEndian.Uint16(p)}, nil
}

// Sample is a telemetry snapshot of the estimated orientation state.
type Sample struct {
	Roll, Pitch, Yaw             float32
	RollRate, PitchRate, YawRate float32
}

// Encode returns the little-endian payload bytes.
func (s Sample) Encode() []byte {
	b := make([]byte, SampleSize)
	putFloat32(b[0:], s.Roll)
	putFloat32(b[4:], s.Pitch)
	putFloat32(b[8:], s.Yaw)
	putFloat32(b[12:], s.RollRate)
	putFloat32(b[16:], s.PitchRate)
	putFloat32(b[20:], s.YawRate)
	return b
}

// DecodeSample decodes a Sample payload.
func DecodeSample(p []byte) (Sample, error) {
	if len(p) < SampleSize {
		return Sample{}, ErrPayloadSize
	}
	return Sample{
		Roll:      float32At(p, 0),
		Pitch:     float32At(p, 4),
		Yaw:       float32At(p, 8),
		RollRate:  float32At(p, 12),
		PitchRate: float32At(p, 16),
		YawRate:   float32At(p, 20),
	}, nil
}

func putFloat32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func float32At(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}
