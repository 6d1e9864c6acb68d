package wire

// Parser reassembles frames from the received byte stream.
//
// The parser always accumulates FrameSize bytes per frame: the sender
// pads the payload area to MaxPayload, so the on-wire frame size is
// fixed even when the declared payload is shorter. Tests pin this down.
type Parser struct {
	buf   [FrameSize]byte
	n     int
	state parseState
}

type parseState int

const (
	stateSeekStart parseState = iota // discard until StartByte
	stateHeader                      // accumulate 3 header bytes
	stateBody                        // accumulate up to fixed frame size
)

// ParseResult indicates the outcome of one parsing step. At most one of
// Frame and Err is set; both nil means the parser needs more bytes.
type ParseResult struct {
	Frame *Frame
	Err   error
}

// Reset discards any partially accumulated frame.
func (p *Parser) Reset() {
	p.n = 0
	p.state = stateSeekStart
}

// Receiving indicates a frame is partially accumulated.
func (p *Parser) Receiving() bool {
	return p.state != stateSeekStart
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	switch p.state {
	case stateSeekStart:
		if b != StartByte {
			return
		}
		p.buf[0] = b
		p.n = 1
		p.state = stateHeader
	case stateHeader:
		p.buf[p.n] = b
		p.n++
		if p.n == HeaderSize {
			if p.buf[2] > MaxPayload {
				p.Reset()
				pr.Err = ErrInvalidLength
				return
			}
			p.state = stateBody
		}
	case stateBody:
		p.buf[p.n] = b
		p.n++
		if p.n >= FrameSize {
			return p.complete()
		}
	}
	return
}

func (p *Parser) complete() (pr ParseResult) {
	defer p.Reset()
	payloadLen := int(p.buf[2])
	if Checksum(p.buf[:HeaderSize+payloadLen]) != p.buf[FrameSize-1] {
		pr.Err = ErrChecksum
		return
	}
	payload := make([]byte, payloadLen)
	copy(payload, p.buf[HeaderSize:HeaderSize+payloadLen])
	pr.Frame = &Frame{Type: MsgType(p.buf[1]), Payload: payload}
	return
}
