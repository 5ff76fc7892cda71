package unitconvrpc

import (
	"bytes"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Packet is one rpc frame. A request carries the function name and its
// msgpack-encoded argument in Body; the response reuses the request UUID and
// reports a status Code (0 ok, negative an error class).
type Packet struct {
	UUID []byte            `msgpack:"u,omitempty"`
	Code int32             `msgpack:"c,omitempty"`
	Body map[string][]byte `msgpack:"b,omitempty"`
}

func (p *Packet) Marshal() ([]byte, error) {
	return msgpack.Marshal(p)
}

// PacketBuffer reassembles packets from a byte stream. Feed expects whole
// packets per call when the transport already frames messages (UDP); on a
// stream transport partial trailing data stops the decode loop.
type PacketBuffer struct {
	buf bytes.Buffer
}

func (pb *PacketBuffer) Feed(data []byte) ([]*Packet, error) {
	pb.buf.Write(data)

	var results []*Packet
	dec := msgpack.NewDecoder(&pb.buf)

	for {
		v := new(Packet)
		if err := dec.Decode(v); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				// not enough data yet, stop
				break
			}
			return results, err
		}
		results = append(results, v)
	}
	return results, nil
}
