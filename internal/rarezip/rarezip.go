// Package rarezip implements the compressed payload format used by Rare's
// N64 asset archives: a 6-byte header (0x11 0x72 magic, big-endian inflated
// size) followed by a raw DEFLATE stream.
package rarezip

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

const headerSize = 6

var magic = [2]byte{0x11, 0x72}

// Unzip inflates a compressed payload and verifies the header's size field.
func Unzip(in []byte) ([]byte, error) {
	if len(in) < headerSize {
		return nil, fmt.Errorf("compressed payload too small: %d bytes", len(in))
	}
	if in[0] != magic[0] || in[1] != magic[1] {
		return nil, fmt.Errorf("bad compression magic: % 02x", in[0:2])
	}
	want := binary.BigEndian.Uint32(in[2:headerSize])

	fr := flate.NewReader(bytes.NewReader(in[headerSize:]))
	defer fr.Close()

	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("inflate payload: %w", err)
	}
	if uint32(len(out)) != want {
		return nil, fmt.Errorf("inflated %d bytes, header says %d", len(out), want)
	}
	return out, nil
}

// Zip deflates a payload and prepends the header.
func Zip(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(magic[:])

	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(in)))
	buf.Write(size[:])

	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("init deflate: %w", err)
	}
	if _, err := fw.Write(in); err != nil {
		return nil, fmt.Errorf("deflate payload: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("flush deflate: %w", err)
	}
	return buf.Bytes(), nil
}
