package p2pnet

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameBytes bounds a single length-prefixed frame read over any
// p2pnet connection, guarding against a corrupt or hostile length
// prefix forcing an unbounded allocation.
const MaxFrameBytes = 16 * 1024 * 1024

// ReadFrame reads one length-prefixed frame: a 4-byte big-endian length
// followed by that many bytes. Used by both the gossip endpoint and the
// blob-transfer endpoint, which otherwise share nothing about their wire
// formats.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 || n > MaxFrameBytes {
		return nil, fmt.Errorf("p2pnet: implausible frame length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteFrame writes one length-prefixed frame.
func WriteFrame(w io.Writer, frame []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(frame)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(frame)
	return err
}
