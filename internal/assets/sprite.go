package assets

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// Sprite header: u16 frame count, u16 format code, 12 reserved bytes, then
// a table of u32 frame offsets relative to the end of that table.
const (
	spriteHeaderSize  = 0x10
	spriteFrameHeader = 20
	giantFrameCount   = 0x100
)

// spriteFormat maps a header format code to an image format. Codes outside
// the table mark the sprite opaque.
func spriteFormat(code uint16) ImageFormat {
	switch code {
	case 0x0001:
		return FmtCI4
	case 0x0004:
		return FmtCI8
	case 0x0020:
		return FmtI4
	case 0x0040:
		return FmtI8
	case 0x0400:
		return FmtRGBA16
	case 0x0800:
		return FmtRGBA32
	}
	return FmtUnknown
}

// SpriteFrame is one assembled image: an RGBA8 canvas of W×H pixels.
type SpriteFrame struct {
	X, Y   int16
	W, H   uint16
	Pixels []byte
}

// Sprite holds the untouched native bytes plus the decoded frames. Raw is
// authoritative for reconstruction; the frames are previews.
type Sprite struct {
	Code   uint16
	Format ImageFormat
	Frames []SpriteFrame
	Raw    []byte
}

// FormatName is the manifest suffix for this sprite's format.
func (s *Sprite) FormatName() string {
	if s.Format == FmtUnknown {
		return fmt.Sprintf("UNKNOWN_%04X", s.Code)
	}
	return s.Format.String()
}

// ParseSprite decodes a sprite payload. Unknown format codes are not an
// error: the sprite degrades to its native bytes with no frames.
func ParseSprite(b []byte) (*Sprite, error) {
	c := newCursor(b)
	frameCount, err := c.u16()
	if err != nil {
		return nil, fmt.Errorf("sprite header: %w", err)
	}
	code, err := c.u16()
	if err != nil {
		return nil, fmt.Errorf("sprite header: %w", err)
	}
	s := &Sprite{Code: code, Format: spriteFormat(code), Raw: append([]byte(nil), b...)}

	// Huge frame counts mark a headerless variant: one full-frame RGBA16
	// chunk starting at offset 8.
	if frameCount > giantFrameCount {
		s.Format = FmtRGBA16
		s.Code = 0x0400
		frame, err := parseSpriteChunkFrame(b, 8, FmtRGBA16, nil)
		if err != nil {
			return nil, fmt.Errorf("giant sprite: %w", err)
		}
		s.Frames = []SpriteFrame{frame}
		return s, nil
	}

	if s.Format == FmtUnknown {
		return s, nil
	}

	c.seek(spriteHeaderSize)
	offsets := make([]uint32, frameCount)
	for i := range offsets {
		off, err := c.u32()
		if err != nil {
			return nil, fmt.Errorf("sprite frame table: %w", err)
		}
		offsets[i] = off
	}
	base := spriteHeaderSize + 4*int(frameCount)

	s.Frames = make([]SpriteFrame, 0, frameCount)
	for i, off := range offsets {
		frame, err := parseSpriteFrame(b, base+int(off), s.Format)
		if err != nil {
			return nil, fmt.Errorf("sprite frame %d: %w", i, err)
		}
		s.Frames = append(s.Frames, frame)
	}
	return s, nil
}

// parseSpriteFrame decodes one frame: a 20-byte header, an aligned palette
// for paletted formats, then the frame's chunks blitted onto the canvas.
func parseSpriteFrame(b []byte, start int, format ImageFormat) (SpriteFrame, error) {
	c := newCursor(b)
	c.seek(start)

	x, err := c.s16()
	if err != nil {
		return SpriteFrame{}, err
	}
	y, err := c.s16()
	if err != nil {
		return SpriteFrame{}, err
	}
	w, err := c.u16()
	if err != nil {
		return SpriteFrame{}, err
	}
	h, err := c.u16()
	if err != nil {
		return SpriteFrame{}, err
	}
	chunkCount, err := c.u16()
	if err != nil {
		return SpriteFrame{}, err
	}
	c.seek(start + spriteFrameHeader)

	var palette []byte
	if n := format.paletteBytes(); n > 0 {
		c.align(8)
		palette, err = c.take(n)
		if err != nil {
			return SpriteFrame{}, fmt.Errorf("palette: %w", err)
		}
	}

	frame := SpriteFrame{X: x, Y: y, W: w, H: h, Pixels: make([]byte, 4*int(w)*int(h))}
	for i := 0; i < int(chunkCount); i++ {
		if err := parseSpriteChunk(c, format, palette, &frame, chunkCount == 1); err != nil {
			return SpriteFrame{}, fmt.Errorf("chunk %d: %w", i, err)
		}
	}
	return frame, nil
}

// parseSpriteChunk decodes one chunk at the cursor and blits it onto the
// frame canvas. Single-chunk frames paste at the origin regardless of the
// chunk's own position.
func parseSpriteChunk(c *cursor, format ImageFormat, palette []byte, frame *SpriteFrame, only bool) error {
	cx, err := c.s16()
	if err != nil {
		return err
	}
	cy, err := c.s16()
	if err != nil {
		return err
	}
	cw, err := c.u16()
	if err != nil {
		return err
	}
	ch, err := c.u16()
	if err != nil {
		return err
	}
	c.align(8)
	data, err := c.take(format.texelBytes(int(cw), int(ch)))
	if err != nil {
		return err
	}
	pixels, err := DecodeTexture(format, int(cw), int(ch), palette, data)
	if err != nil {
		return err
	}
	if only {
		cx, cy = 0, 0
	}
	blitRGBA(frame.Pixels, int(frame.W), int(frame.H), pixels, int(cx), int(cy), int(cw), int(ch))
	return nil
}

// parseSpriteChunkFrame reads a single chunk at start and promotes it to a
// whole frame of the chunk's size.
func parseSpriteChunkFrame(b []byte, start int, format ImageFormat, palette []byte) (SpriteFrame, error) {
	c := newCursor(b)
	c.seek(start)

	if err := c.skip(4); err != nil { // chunk x, y ignored for a full frame
		return SpriteFrame{}, err
	}
	w, err := c.u16()
	if err != nil {
		return SpriteFrame{}, err
	}
	h, err := c.u16()
	if err != nil {
		return SpriteFrame{}, err
	}
	c.align(8)
	data, err := c.take(format.texelBytes(int(w), int(h)))
	if err != nil {
		return SpriteFrame{}, err
	}
	pixels, err := DecodeTexture(format, int(w), int(h), palette, data)
	if err != nil {
		return SpriteFrame{}, err
	}
	return SpriteFrame{W: w, H: h, Pixels: pixels}, nil
}

// blitRGBA pastes an RGBA8 rectangle into the destination canvas, clipping
// anything that falls outside it.
func blitRGBA(dst []byte, dw, dh int, src []byte, sx, sy, sw, sh int) {
	for row := 0; row < sh; row++ {
		dy := sy + row
		if dy < 0 || dy >= dh {
			continue
		}
		for col := 0; col < sw; col++ {
			dx := sx + col
			if dx < 0 || dx >= dw {
				continue
			}
			copy(dst[4*(dy*dw+dx):4*(dy*dw+dx)+4], src[4*(row*sw+col):])
		}
	}
}

// WriteFiles writes the native bytes to path, and for decodable sprites a
// .sprite.yaml descriptor plus one PNG per frame in a sibling directory
// named after the sprite's uid stem.
func (s *Sprite) WriteFiles(path string) error {
	if err := os.WriteFile(path, s.Raw, 0644); err != nil {
		return fmt.Errorf("write %s: %v: %w", path, err, ErrIO)
	}
	if s.Format == FmtUnknown {
		return nil
	}

	dir := filepath.Dir(path)
	stem, _, _ := strings.Cut(filepath.Base(path), ".")
	frameDir := filepath.Join(dir, stem)
	if err := os.MkdirAll(frameDir, 0755); err != nil {
		return fmt.Errorf("create %s: %v: %w", frameDir, err, ErrIO)
	}

	f, err := os.Create(filepath.Join(dir, stem+".sprite.yaml"))
	if err != nil {
		return fmt.Errorf("create sprite descriptor: %v: %w", err, ErrIO)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "type: Sprite\n")
	fmt.Fprintf(w, "format: %s\n", s.Format)
	if len(s.Frames) == 0 {
		fmt.Fprintf(w, "frames: []\n")
	} else {
		fmt.Fprintf(w, "frames:\n")
	}
	for i, frame := range s.Frames {
		rel := fmt.Sprintf("%s/frame_%03d.png", stem, i)
		fmt.Fprintf(w, "  - {w: %d, h: %d, png: %q}\n", frame.W, frame.H, rel)
		if err := writeFramePNG(filepath.Join(dir, filepath.FromSlash(rel)), frame); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write sprite descriptor: %v: %w", err, ErrIO)
	}
	return nil
}

func writeFramePNG(path string, frame SpriteFrame) error {
	img := &image.NRGBA{
		Pix:    frame.Pixels,
		Stride: 4 * int(frame.W),
		Rect:   image.Rect(0, 0, int(frame.W), int(frame.H)),
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %v: %w", path, err, ErrIO)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %v: %w", path, err, ErrIO)
	}
	return nil
}
