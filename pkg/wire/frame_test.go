package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	require.Equal(t, byte(0), Checksum(nil))
	require.Equal(t, byte(6), Checksum([]byte{1, 2, 3}))
	// mod 256 wrap
	require.Equal(t, byte(0x54), Checksum([]byte{0xAA, 0xAA}))
}

func TestChecksumDetectsSingleByteFlip(t *testing.T) {
	data := []byte{0xAA, 1, 4, 0x10, 0x20, 0x30, 0x40}
	sum := Checksum(data)
	for i := range data {
		for delta := byte(1); delta != 0; delta++ {
			flipped := append([]byte(nil), data...)
			flipped[i] += delta
			require.NotEqualf(t, sum, Checksum(flipped),
				"byte %d delta %d must change the sum", i, delta)
		}
	}
}

func TestFrameBytes(t *testing.T) {
	f, err := NewFrame(MsgArming, []byte{1})
	require.NoError(t, err)
	b := f.Bytes()
	require.Len(t, b, FrameSize)
	require.Equal(t, StartByte, b[0])
	require.Equal(t, byte(MsgArming), b[1])
	require.Equal(t, byte(1), b[2])
	require.Equal(t, byte(1), b[3])
	// padding is zeros and not covered by the check byte
	for i := HeaderSize + 1; i < FrameSize-1; i++ {
		require.Zerof(t, b[i], "padding byte %d", i)
	}
	require.Equal(t, Checksum(b[:HeaderSize+1]), b[FrameSize-1])
}

func TestFrameFixedSize(t *testing.T) {
	for _, payload := range [][]byte{nil, {1}, make([]byte, MaxPayload)} {
		f, err := NewFrame(MsgThrust, payload)
		require.NoError(t, err)
		require.Len(t, f.Bytes(), FrameSize)
	}
}

func TestFramePayloadTooLong(t *testing.T) {
	_, err := NewFrame(MsgThrust, make([]byte, MaxPayload+1))
	require.Equal(t, ErrInvalidLength, err)
}

func TestFrameWriteTo(t *testing.T) {
	f, err := NewFrame(MsgSpecialCmd, SpecialCmd{Command: 5}.Encode())
	require.NoError(t, err)
	var buf bytes.Buffer
	n, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, FrameSize, n)
	require.Equal(t, f.Bytes(), buf.Bytes())
}

func TestPayloadRoundTrip(t *testing.T) {
	arming, err := DecodeArming(Arming{Arm: 1}.Encode())
	require.NoError(t, err)
	require.Equal(t, byte(1), arming.Arm)

	thrust, err := DecodeThrust(Thrust{M1: 0.1, M2: 0.2, M3: 0.3, M4: 0.4}.Encode())
	require.NoError(t, err)
	require.Equal(t, Thrust{M1: 0.1, M2: 0.2, M3: 0.3, M4: 0.4}, thrust)

	axis, err := DecodeAxisSetpoint(AxisSetpoint{Value: -2.5}.Encode())
	require.NoError(t, err)
	require.Equal(t, float32(-2.5), axis.Value)

	motor, err := DecodeSingleMotor(SingleMotor{Value: 0.75}.Encode())
	require.NoError(t, err)
	require.Equal(t, float32(0.75), motor.Value)

	special, err := DecodeSpecialCmd(SpecialCmd{Command: 0x0102}.Encode())
	require.NoError(t, err)
	require.Equal(t, uint16(0x0102), special.Command)

	in := Sample{Roll: 1, Pitch: 2, Yaw: 3, RollRate: -1, PitchRate: -2, YawRate: -3}
	sample, err := DecodeSample(in.Encode())
	require.NoError(t, err)
	require.Equal(t, in, sample)
}

func TestPayloadTooShort(t *testing.T) {
	_, err := DecodeArming(nil)
	require.Equal(t, ErrPayloadSize, err)
	_, err = DecodeThrust(make([]byte, ThrustSize-1))
	require.Equal(t, ErrPayloadSize, err)
	_, err = DecodeAxisSetpoint(make([]byte, 3))
	require.Equal(t, ErrPayloadSize, err)
	_, err = DecodeSingleMotor(make([]byte, 3))
	require.Equal(t, ErrPayloadSize, err)
	_, err = DecodeSpecialCmd(make([]byte, 1))
	require.Equal(t, ErrPayloadSize, err)
	_, err = DecodeSample(make([]byte, SampleSize-1))
	require.Equal(t, ErrPayloadSize, err)
}

func TestPayloadLittleEndian(t *testing.T) {
	b := SpecialCmd{Command: 0x0102}.Encode()
	require.Equal(t, []byte{0x02, 0x01}, b)
}
