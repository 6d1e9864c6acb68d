package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type parserTestSequence struct {
	in    []byte
	final ParseResult
}

type parserTestSequenceBuilder struct {
	seq []parserTestSequence
}

func parserTestSequences() *parserTestSequenceBuilder {
	return &parserTestSequenceBuilder{}
}

func (b *parserTestSequenceBuilder) on(in ...byte) *parserTestSequenceBuilder {
	b.seq = append(b.seq, parserTestSequence{in: in})
	return b
}

// onFrame feeds a complete encoded frame.
func (b *parserTestSequenceBuilder) onFrame(t MsgType, payload ...byte) *parserTestSequenceBuilder {
	f, err := NewFrame(t, payload)
	if err != nil {
		panic(err)
	}
	return b.on(f.Bytes()...)
}

// onCorrupt feeds an encoded frame with its check byte flipped.
func (b *parserTestSequenceBuilder) onCorrupt(t MsgType, payload ...byte) *parserTestSequenceBuilder {
	f, err := NewFrame(t, payload)
	if err != nil {
		panic(err)
	}
	raw := f.Bytes()
	raw[FrameSize-1] ^= 0xFF
	return b.on(raw...)
}

func (b *parserTestSequenceBuilder) frame(t MsgType, payload ...byte) *parserTestSequenceBuilder {
	if payload == nil {
		payload = []byte{}
	}
	b.seq[len(b.seq)-1].final = ParseResult{Frame: &Frame{Type: t, Payload: payload}}
	return b
}

func (b *parserTestSequenceBuilder) fail(err error) *parserTestSequenceBuilder {
	b.seq[len(b.seq)-1].final = ParseResult{Err: err}
	return b
}

func (b *parserTestSequenceBuilder) build() []parserTestSequence {
	return b.seq
}

func TestParser(t *testing.T) {
	testCases := []struct {
		name string
		seq  []parserTestSequence
	}{
		{
			name: "single frame",
			seq: parserTestSequences().
				onFrame(MsgArming, 1).frame(MsgArming, 1).
				build(),
		},
		{
			name: "skip garbage before start",
			seq: parserTestSequences().
				on(0x00, 0x55, 0xFF).
				onFrame(MsgArming, 0).frame(MsgArming, 0).
				build(),
		},
		{
			name: "back to back frames",
			seq: parserTestSequences().
				onFrame(MsgPitch, AxisSetpoint{Value: 1}.Encode()...).frame(MsgPitch, AxisSetpoint{Value: 1}.Encode()...).
				onFrame(MsgYaw, AxisSetpoint{Value: 2}.Encode()...).frame(MsgYaw, AxisSetpoint{Value: 2}.Encode()...).
				build(),
		},
		{
			name: "empty payload frame",
			seq: parserTestSequences().
				onFrame(MsgCalibrateMag).frame(MsgCalibrateMag).
				build(),
		},
		{
			name: "invalid declared length",
			seq: parserTestSequences().
				on(StartByte, byte(MsgThrust), MaxPayload+1).fail(ErrInvalidLength).
				onFrame(MsgArming, 1).frame(MsgArming, 1).
				build(),
		},
		{
			name: "checksum mismatch",
			seq: parserTestSequences().
				onCorrupt(MsgArming, 1).fail(ErrChecksum).
				onFrame(MsgArming, 1).frame(MsgArming, 1).
				build(),
		},
		{
			name: "padding excluded from checksum",
			seq: parserTestSequences().
				onFrame(MsgSpecialCmd, SpecialCmd{Command: 3}.Encode()...).frame(MsgSpecialCmd, SpecialCmd{Command: 3}.Encode()...).
				build(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var parser Parser
			for n, s := range tc.seq {
				var pr ParseResult
				for _, b := range s.in {
					pr = parser.Parse(b)
				}
				require.Equalf(t, s.final, pr, "seq[%d] final mismatch", n)
			}
		})
	}
}

func TestParserFixedFrameSize(t *testing.T) {
	// a 1-byte payload still needs all FrameSize bytes on the wire
	var parser Parser
	f, err := NewFrame(MsgArming, []byte{1})
	require.NoError(t, err)
	raw := f.Bytes()
	for _, b := range raw[:FrameSize-1] {
		pr := parser.Parse(b)
		require.Nil(t, pr.Frame)
		require.NoError(t, pr.Err)
	}
	require.True(t, parser.Receiving())
	pr := parser.Parse(raw[FrameSize-1])
	require.NoError(t, pr.Err)
	require.NotNil(t, pr.Frame)
	require.Equal(t, MsgArming, pr.Frame.Type)
	require.Equal(t, []byte{1}, pr.Frame.Payload)
	require.False(t, parser.Receiving())
}

func TestParserReset(t *testing.T) {
	var parser Parser
	parser.Parse(StartByte)
	parser.Parse(byte(MsgArming))
	require.True(t, parser.Receiving())
	parser.Reset()
	require.False(t, parser.Receiving())

	// a fresh frame parses cleanly after the reset
	f, err := NewFrame(MsgArming, []byte{1})
	require.NoError(t, err)
	var pr ParseResult
	for _, b := range f.Bytes() {
		pr = parser.Parse(b)
	}
	require.NotNil(t, pr.Frame)
}
