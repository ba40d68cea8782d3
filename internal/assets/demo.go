package assets

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ContInput is one controller sample in a demo recording.
type ContInput struct {
	X       int8
	Y       int8
	Buttons uint16
	Frames  uint8
}

// DemoInput is a recorded input stream. The first-frame flag lives in the
// pad byte of the first 6-byte record on disk (byte index 9 of the payload).
type DemoInput struct {
	Inputs []ContInput
	Flag   uint8
}

const demoRecordSize = 6

// ParseDemoInput decodes the binary layout: a u32 total length followed by
// 6-byte records. Payloads shorter than the length prefix itself decode to
// the empty stream.
func ParseDemoInput(b []byte) (*DemoInput, error) {
	if len(b) < 4 {
		return &DemoInput{}, nil
	}
	want := binary.BigEndian.Uint32(b[:4])
	var flag uint8
	if len(b) >= 10 {
		flag = b[9]
	}
	rest := b[4:]
	n := len(rest) / demoRecordSize
	inputs := make([]ContInput, 0, n)
	for i := 0; i < n; i++ {
		rec := rest[i*demoRecordSize:]
		inputs = append(inputs, ContInput{
			X:       int8(rec[0]),
			Y:       int8(rec[1]),
			Buttons: binary.BigEndian.Uint16(rec[2:4]),
			Frames:  rec[4],
		})
	}
	if int(want) != demoRecordSize*len(inputs) {
		return nil, fmt.Errorf("demo length prefix %d does not match %d records: %w", want, len(inputs), ErrCodec)
	}
	return &DemoInput{Inputs: inputs, Flag: flag}, nil
}

// Encode serializes back to the binary layout; the empty stream serializes
// to zero bytes.
func (d *DemoInput) Encode() []byte {
	if len(d.Inputs) == 0 {
		return nil
	}
	out := make([]byte, 4, 4+demoRecordSize*len(d.Inputs))
	binary.BigEndian.PutUint32(out, uint32(demoRecordSize*len(d.Inputs)))
	for _, in := range d.Inputs {
		out = append(out, byte(in.X), byte(in.Y), byte(in.Buttons>>8), byte(in.Buttons), in.Frames, 0x00)
	}
	out[9] = d.Flag
	return out
}

// WriteFile writes the YAML text form.
func (d *DemoInput) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %v: %w", path, err, ErrIO)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "type: DemoInput\n")
	fmt.Fprintf(w, "flag: 0x%02X\n", d.Flag)
	if len(d.Inputs) == 0 {
		fmt.Fprintf(w, "inputs: []\n")
	} else {
		fmt.Fprintf(w, "inputs:\n")
		for _, in := range d.Inputs {
			fmt.Fprintf(w, "  - {x: %3d, y: %3d, buttons: 0x%04X, frames: %d}\n", in.X, in.Y, in.Buttons, in.Frames)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %v: %w", path, err, ErrIO)
	}
	return nil
}

type demoYAML struct {
	Type   string `yaml:"type"`
	Flag   int    `yaml:"flag"`
	Inputs []struct {
		X       int `yaml:"x"`
		Y       int `yaml:"y"`
		Buttons int `yaml:"buttons"`
		Frames  int `yaml:"frames"`
	} `yaml:"inputs"`
}

// ReadDemoInputFile loads the YAML text form.
func ReadDemoInputFile(path string) (*DemoInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %v: %w", path, err, ErrIO)
	}
	var doc demoYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %v: %w", path, err, ErrCodec)
	}
	if doc.Type != "DemoInput" {
		return nil, fmt.Errorf("%s: type %q is not DemoInput: %w", path, doc.Type, ErrCodec)
	}
	d := &DemoInput{Flag: uint8(doc.Flag), Inputs: make([]ContInput, 0, len(doc.Inputs))}
	for _, in := range doc.Inputs {
		d.Inputs = append(d.Inputs, ContInput{
			X:       int8(in.X),
			Y:       int8(in.Y),
			Buttons: uint16(in.Buttons),
			Frames:  uint8(in.Frames),
		})
	}
	return d, nil
}
