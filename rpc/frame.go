package unitconvrpc

import (
	"bytes"
	"encoding/binary"
)

// Datagram framing: a little-endian uint32 length prefix per message, so a
// stream of concatenated frames can be cut back into whole packets.

func Frame(data []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

// FrameBuffer accumulates incoming bytes and yields complete messages.
type FrameBuffer struct {
	buf bytes.Buffer
}

func (f *FrameBuffer) Feed(data []byte) [][]byte {
	f.buf.Write(data)
	var messages [][]byte

	for {
		if f.buf.Len() < 4 {
			break
		}
		length := binary.LittleEndian.Uint32(f.buf.Bytes()[:4])
		if f.buf.Len() < int(4+length) {
			break
		}
		full := make([]byte, length)
		copy(full, f.buf.Bytes()[4:4+length])
		f.buf.Next(4 + int(length))
		messages = append(messages, full)
	}
	return messages
}
