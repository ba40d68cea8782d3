package assets

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spriteBuilder assembles synthetic sprite payloads for tests.
type spriteBuilder struct {
	buf bytes.Buffer
}

func (b *spriteBuilder) u16(v uint16) *spriteBuilder {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

func (b *spriteBuilder) u32(v uint32) *spriteBuilder {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

func (b *spriteBuilder) raw(p []byte) *spriteBuilder {
	b.buf.Write(p)
	return b
}

func (b *spriteBuilder) zeros(n int) *spriteBuilder {
	b.buf.Write(make([]byte, n))
	return b
}

func (b *spriteBuilder) padTo8() *spriteBuilder {
	for b.buf.Len()%8 != 0 {
		b.buf.WriteByte(0)
	}
	return b
}

func (b *spriteBuilder) frameHeader(x, y int16, w, h, chunks uint16) *spriteBuilder {
	b.u16(uint16(x)).u16(uint16(y)).u16(w).u16(h).u16(chunks)
	return b.zeros(10)
}

func rgba16Texels(v uint16, n int) []byte {
	out := make([]byte, 0, 2*n)
	for i := 0; i < n; i++ {
		out = append(out, byte(v>>8), byte(v))
	}
	return out
}

// buildTwoFrameRGBA16 builds a two-frame 16x16 RGBA16 sprite, first frame
// solid red, second solid blue.
func buildTwoFrameRGBA16(t *testing.T) []byte {
	t.Helper()
	var b spriteBuilder
	b.u16(2).u16(0x0400).zeros(12) // header

	// each frame: 20-byte header, 8-byte chunk header, 4 pad, 512 texel bytes
	const frameSize = 20 + 8 + 4 + 512
	b.u32(0).u32(frameSize)

	for _, texel := range []uint16{0xF801, 0x003F} {
		b.frameHeader(0, 0, 16, 16, 1)
		b.u16(0).u16(0).u16(16).u16(16) // chunk header
		b.padTo8()
		b.raw(rgba16Texels(texel, 16*16))
	}
	return b.buf.Bytes()
}

func TestParseSpriteRGBA16(t *testing.T) {
	payload := buildTwoFrameRGBA16(t)
	s, err := ParseSprite(payload)
	require.NoError(t, err)
	assert.Equal(t, FmtRGBA16, s.Format)
	assert.Equal(t, payload, s.Raw)
	require.Len(t, s.Frames, 2)

	for i, want := range [][]byte{{255, 0, 0, 255}, {0, 0, 255, 255}} {
		fr := s.Frames[i]
		assert.Equal(t, uint16(16), fr.W)
		assert.Equal(t, uint16(16), fr.H)
		require.Len(t, fr.Pixels, 4*16*16)
		assert.Equal(t, want, fr.Pixels[0:4], "frame %d first pixel", i)
		assert.Equal(t, want, fr.Pixels[len(fr.Pixels)-4:], "frame %d last pixel", i)
	}
}

func TestParseSpriteChunkPlacement(t *testing.T) {
	var b spriteBuilder
	b.u16(1).u16(0x0400).zeros(12)
	b.u32(0)
	b.frameHeader(0, 0, 2, 1, 2)
	// chunk 0: 1x1 red at (0,0); the next chunk header follows unaligned
	b.u16(0).u16(0).u16(1).u16(1).padTo8().raw(rgba16Texels(0xF801, 1))
	// chunk 1: 1x1 blue at (1,0), texels aligned past its header
	b.u16(1).u16(0).u16(1).u16(1).padTo8().raw(rgba16Texels(0x003F, 1))

	s, err := ParseSprite(b.buf.Bytes())
	require.NoError(t, err)
	require.Len(t, s.Frames, 1)
	assert.Equal(t, []byte{255, 0, 0, 255, 0, 0, 255, 255}, s.Frames[0].Pixels)
}

func TestParseSpriteSingleChunkIgnoresOrigin(t *testing.T) {
	var b spriteBuilder
	b.u16(1).u16(0x0400).zeros(12)
	b.u32(0)
	b.frameHeader(0, 0, 2, 2, 1)
	// chunk claims (5,5) but single chunks paste at the origin
	b.u16(5).u16(5).u16(2).u16(2).padTo8().raw(rgba16Texels(0xFFFF, 4))

	s, err := ParseSprite(b.buf.Bytes())
	require.NoError(t, err)
	require.Len(t, s.Frames, 1)
	assert.Equal(t, bytes.Repeat([]byte{255}, 16), s.Frames[0].Pixels)
}

func TestParseSpriteChunkClipped(t *testing.T) {
	var b spriteBuilder
	b.u16(1).u16(0x0400).zeros(12)
	b.u32(0)
	b.frameHeader(0, 0, 1, 1, 2)
	// chunk 0 covers the canvas, chunk 1 falls entirely outside
	b.u16(0).u16(0).u16(1).u16(1).padTo8().raw(rgba16Texels(0xF801, 1))
	b.u16(3).u16(3).u16(1).u16(1).padTo8().raw(rgba16Texels(0x003F, 1))

	s, err := ParseSprite(b.buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 0, 0, 255}, s.Frames[0].Pixels)
}

func TestParseSpriteCI4(t *testing.T) {
	var b spriteBuilder
	b.u16(1).u16(0x0001).zeros(12)
	b.u32(0)
	b.frameHeader(0, 0, 2, 2, 1)
	b.padTo8()
	pal := make([]byte, 32)
	pal[2], pal[3] = 0xFF, 0xFF // entry 1 = opaque white
	b.raw(pal)
	b.u16(0).u16(0).u16(2).u16(2).padTo8()
	b.raw([]byte{0x01, 0x10}) // texels 0,1,1,0

	s, err := ParseSprite(b.buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, FmtCI4, s.Format)
	require.Len(t, s.Frames, 1)
	assert.Equal(t, []byte{
		0, 0, 0, 0,
		255, 255, 255, 255,
		255, 255, 255, 255,
		0, 0, 0, 0,
	}, s.Frames[0].Pixels)
}

func TestParseSpriteGiant(t *testing.T) {
	var b spriteBuilder
	b.u16(0x0101).u16(0x0000).u32(0) // count over the limit, offset 8 next
	b.u16(0).u16(0).u16(2).u16(1)    // chunk header at offset 8
	b.raw(rgba16Texels(0xF801, 2))

	s, err := ParseSprite(b.buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, FmtRGBA16, s.Format)
	require.Len(t, s.Frames, 1)
	assert.Equal(t, uint16(2), s.Frames[0].W)
	assert.Equal(t, []byte{255, 0, 0, 255, 255, 0, 0, 255}, s.Frames[0].Pixels)
}

func TestParseSpriteUnknownFormat(t *testing.T) {
	payload := []byte{0x00, 0x01, 0x12, 0x34, 0xDE, 0xAD}
	s, err := ParseSprite(payload)
	require.NoError(t, err)
	assert.Equal(t, FmtUnknown, s.Format)
	assert.Equal(t, "UNKNOWN_1234", s.FormatName())
	assert.Empty(t, s.Frames)
	assert.Equal(t, payload, s.Raw)
}

func TestParseSpriteTruncated(t *testing.T) {
	var b spriteBuilder
	b.u16(1).u16(0x0400).zeros(12)
	b.u32(0)
	b.frameHeader(0, 0, 16, 16, 1)
	b.u16(0).u16(0).u16(16).u16(16).padTo8()
	b.raw(rgba16Texels(0xF801, 4)) // far too few texels

	_, err := ParseSprite(b.buf.Bytes())
	require.ErrorIs(t, err, ErrFormat)
}

func TestSpriteWriteFiles(t *testing.T) {
	payload := buildTwoFrameRGBA16(t)
	s, err := ParseSprite(payload)
	require.NoError(t, err)

	dir := t.TempDir()
	native := filepath.Join(dir, "0042.sprite.rgba16.bin")
	require.NoError(t, s.WriteFiles(native))

	raw, err := os.ReadFile(native)
	require.NoError(t, err)
	assert.Equal(t, payload, raw)

	desc, err := os.ReadFile(filepath.Join(dir, "0042.sprite.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(desc), "format: RGBA16")
	assert.Contains(t, string(desc), "frame_000.png")
	assert.Contains(t, string(desc), "frame_001.png")

	for i, want := range [][4]uint32{{0xFFFF, 0, 0, 0xFFFF}, {0, 0, 0xFFFF, 0xFFFF}} {
		f, err := os.Open(filepath.Join(dir, "0042", []string{"frame_000.png", "frame_001.png"}[i]))
		require.NoError(t, err)
		img, err := png.Decode(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, 16, img.Bounds().Dx())
		assert.Equal(t, 16, img.Bounds().Dy())
		r, g, bl, a := img.At(0, 0).RGBA()
		assert.Equal(t, want, [4]uint32{r, g, bl, a}, "frame %d", i)
	}
}

func TestSpriteWriteFilesUnknown(t *testing.T) {
	s := &Sprite{Code: 0x1234, Format: FmtUnknown, Raw: []byte{0x00, 0x01, 0x12, 0x34}}
	dir := t.TempDir()
	native := filepath.Join(dir, "0099.sprite.unknown_1234.bin")
	require.NoError(t, s.WriteFiles(native))

	_, err := os.Stat(filepath.Join(dir, "0099.sprite.yaml"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "0099"))
	assert.True(t, os.IsNotExist(err))
}
