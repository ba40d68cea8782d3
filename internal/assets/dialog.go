package assets

import (
	"bufio"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BKString is one game text record: a command byte plus a length-prefixed
// string in the game encoding, NUL terminator included in the stored bytes.
type BKString struct {
	Cmd    uint8
	String []byte
}

var (
	dialogPrefix = []byte{0x01, 0x03, 0x00}
	quizPrefix   = []byte{0x01, 0x01, 0x02, 0x05, 0x00}
	gruntyPrefix = []byte{0x01, 0x03, 0x00, 0x05, 0x00}
)

func readBKString(c *cursor) (BKString, error) {
	cmd, err := c.u8()
	if err != nil {
		return BKString{}, err
	}
	size, err := c.u8()
	if err != nil {
		return BKString{}, err
	}
	raw, err := c.take(int(size))
	if err != nil {
		return BKString{}, err
	}
	return BKString{Cmd: cmd, String: append([]byte(nil), raw...)}, nil
}

func appendBKString(out []byte, s BKString) []byte {
	out = append(out, s.Cmd, uint8(len(s.String)))
	return append(out, s.String...)
}

// readStringSection reads a count byte followed by that many records.
func readStringSection(c *cursor) ([]BKString, error) {
	count, err := c.u8()
	if err != nil {
		return nil, err
	}
	out := make([]BKString, 0, count)
	for i := 0; i < int(count); i++ {
		s, err := readBKString(c)
		if err != nil {
			return nil, fmt.Errorf("string record %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func writeStringSection(w *bufio.Writer, name string, records []BKString) {
	fmt.Fprintf(w, "%s:\n", name)
	for _, s := range records {
		fmt.Fprintf(w, "  - { cmd: 0x%02X, string: \"%s\"}\n", s.Cmd, encodeGameString(s.String))
	}
}

// bkStringYAML is the file form of one record.
type bkStringYAML struct {
	Cmd    int    `yaml:"cmd"`
	String string `yaml:"string"`
}

func fromYAMLStrings(rows []bkStringYAML) ([]BKString, error) {
	out := make([]BKString, 0, len(rows))
	for i, r := range rows {
		b, err := decodeGameString(r.String)
		if err != nil {
			return nil, fmt.Errorf("string record %d: %w", i, err)
		}
		out = append(out, BKString{Cmd: uint8(r.Cmd), String: b})
	}
	return out, nil
}

// Dialog is the in-game text box: bottom and top string sequences.
type Dialog struct {
	Bottom []BKString
	Top    []BKString
}

// ParseDialog decodes the binary dialog layout.
func ParseDialog(b []byte) (*Dialog, error) {
	c := newCursor(b)
	if err := c.skip(len(dialogPrefix)); err != nil {
		return nil, err
	}
	bottom, err := readStringSection(c)
	if err != nil {
		return nil, fmt.Errorf("dialog bottom: %w", err)
	}
	top, err := readStringSection(c)
	if err != nil {
		return nil, fmt.Errorf("dialog top: %w", err)
	}
	return &Dialog{Bottom: bottom, Top: top}, nil
}

// Encode serializes back to the binary layout.
func (d *Dialog) Encode() []byte {
	out := append([]byte(nil), dialogPrefix...)
	out = append(out, uint8(len(d.Bottom)))
	for _, s := range d.Bottom {
		out = appendBKString(out, s)
	}
	out = append(out, uint8(len(d.Top)))
	for _, s := range d.Top {
		out = appendBKString(out, s)
	}
	return out
}

// WriteFile writes the YAML text form.
func (d *Dialog) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %v: %w", path, err, ErrIO)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "type: Dialog\n")
	writeStringSection(w, "bottom", d.Bottom)
	writeStringSection(w, "top", d.Top)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %v: %w", path, err, ErrIO)
	}
	return nil
}

type dialogYAML struct {
	Type   string         `yaml:"type"`
	Bottom []bkStringYAML `yaml:"bottom"`
	Top    []bkStringYAML `yaml:"top"`
}

// ReadDialogFile loads the YAML text form.
func ReadDialogFile(path string) (*Dialog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %v: %w", path, err, ErrIO)
	}
	var doc dialogYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %v: %w", path, err, ErrCodec)
	}
	if doc.Type != "Dialog" {
		return nil, fmt.Errorf("%s: type %q is not Dialog: %w", path, doc.Type, ErrCodec)
	}
	bottom, err := fromYAMLStrings(doc.Bottom)
	if err != nil {
		return nil, fmt.Errorf("%s bottom: %w", path, err)
	}
	top, err := fromYAMLStrings(doc.Top)
	if err != nil {
		return nil, fmt.Errorf("%s top: %w", path, err)
	}
	return &Dialog{Bottom: bottom, Top: top}, nil
}

// Question is the shared shape of QuizQuestion and GruntyQuestion: question
// text records followed by exactly three answer options.
type Question struct {
	Question []BKString
	Options  [3]BKString
}

// ParseQuestion decodes the binary layout shared by both quiz kinds: a
// 5-byte prefix, a total record count, then the records, of which the last
// three are the options.
func ParseQuestion(b []byte) (*Question, error) {
	c := newCursor(b)
	if err := c.skip(len(quizPrefix)); err != nil {
		return nil, err
	}
	records, err := readStringSection(c)
	if err != nil {
		return nil, fmt.Errorf("question records: %w", err)
	}
	if len(records) < 3 {
		return nil, fmt.Errorf("question has %d records, need at least 3 options: %w", len(records), ErrCodec)
	}
	q := &Question{Question: records[:len(records)-3]}
	copy(q.Options[:], records[len(records)-3:])
	return q, nil
}

func (q *Question) encode(prefix []byte) []byte {
	out := append([]byte(nil), prefix...)
	out = append(out, uint8(len(q.Question)+len(q.Options)))
	for _, s := range q.Question {
		out = appendBKString(out, s)
	}
	for _, s := range q.Options {
		out = appendBKString(out, s)
	}
	return out
}

func (q *Question) writeFile(path, typeName string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %v: %w", path, err, ErrIO)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "type: %s\n", typeName)
	writeStringSection(w, "question", q.Question)
	writeStringSection(w, "options", q.Options[:])
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %v: %w", path, err, ErrIO)
	}
	return nil
}

type questionYAML struct {
	Type     string         `yaml:"type"`
	Question []bkStringYAML `yaml:"question"`
	Options  []bkStringYAML `yaml:"options"`
}

func readQuestionFile(path, typeName string) (*Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %v: %w", path, err, ErrIO)
	}
	var doc questionYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %v: %w", path, err, ErrCodec)
	}
	if doc.Type != typeName {
		return nil, fmt.Errorf("%s: type %q is not %s: %w", path, doc.Type, typeName, ErrCodec)
	}
	if len(doc.Options) != 3 {
		return nil, fmt.Errorf("%s: %d options, need exactly 3: %w", path, len(doc.Options), ErrCodec)
	}
	question, err := fromYAMLStrings(doc.Question)
	if err != nil {
		return nil, fmt.Errorf("%s question: %w", path, err)
	}
	options, err := fromYAMLStrings(doc.Options)
	if err != nil {
		return nil, fmt.Errorf("%s options: %w", path, err)
	}
	q := &Question{Question: question}
	copy(q.Options[:], options)
	return q, nil
}
