package assets

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Kind enumerates the payload kinds an archive slot can hold.
type Kind int

const (
	KindBinary Kind = iota
	KindAnimation
	KindModel
	KindLevelSetup
	KindMidi
	KindDialog
	KindQuizQuestion
	KindGruntyQuestion
	KindDemoInput
	KindSprite
)

// Asset is a tagged variant: Kind selects which payload field is set. Raw
// holds the original decompressed bytes for the kinds whose file form is the
// bytes themselves.
type Asset struct {
	Kind     Kind
	Raw      []byte
	Dialog   *Dialog
	Question *Question
	Demo     *DemoInput
	Sprite   *Sprite
}

var modelMagic = []byte{0x00, 0x00, 0x00, 0x0B}

func opaqueAsset(kind Kind, b []byte) *Asset {
	return &Asset{Kind: kind, Raw: append([]byte(nil), b...)}
}

// ResolveAsset classifies a decompressed payload by segment index and
// leading bytes, and parses it. Unrecognised segments fall through to
// opaque Binary.
func ResolveAsset(segment int, b []byte) (*Asset, error) {
	switch segment {
	case 0:
		return opaqueAsset(KindAnimation, b), nil
	case 1, 3:
		if bytes.HasPrefix(b, modelMagic) {
			return opaqueAsset(KindModel, b), nil
		}
		s, err := ParseSprite(b)
		if err != nil {
			return nil, err
		}
		return &Asset{Kind: KindSprite, Sprite: s}, nil
	case 2:
		return opaqueAsset(KindLevelSetup, b), nil
	case 4:
		switch {
		case bytes.HasPrefix(b, quizPrefix):
			q, err := ParseQuestion(b)
			if err != nil {
				return nil, err
			}
			return &Asset{Kind: KindQuizQuestion, Question: q}, nil
		case bytes.HasPrefix(b, gruntyPrefix):
			q, err := ParseQuestion(b)
			if err != nil {
				return nil, err
			}
			return &Asset{Kind: KindGruntyQuestion, Question: q}, nil
		case bytes.HasPrefix(b, dialogPrefix):
			d, err := ParseDialog(b)
			if err != nil {
				return nil, err
			}
			return &Asset{Kind: KindDialog, Dialog: d}, nil
		default:
			d, err := ParseDemoInput(b)
			if err != nil {
				return nil, err
			}
			return &Asset{Kind: KindDemoInput, Demo: d}, nil
		}
	case 5:
		return opaqueAsset(KindModel, b), nil
	case 6:
		return opaqueAsset(KindMidi, b), nil
	default:
		return opaqueAsset(KindBinary, b), nil
	}
}

// Encode serializes the asset back to its uncompressed payload bytes.
func (a *Asset) Encode() []byte {
	switch a.Kind {
	case KindDialog:
		return a.Dialog.Encode()
	case KindQuizQuestion:
		return a.Question.encode(quizPrefix)
	case KindGruntyQuestion:
		return a.Question.encode(gruntyPrefix)
	case KindDemoInput:
		return a.Demo.Encode()
	case KindSprite:
		return a.Sprite.Raw
	default:
		return a.Raw
	}
}

// TypeName is the manifest type string.
func (a *Asset) TypeName() string {
	switch a.Kind {
	case KindAnimation:
		return "Animation"
	case KindModel:
		return "Model"
	case KindLevelSetup:
		return "LevelSetup"
	case KindMidi:
		return "Midi"
	case KindDialog:
		return "Dialog"
	case KindQuizQuestion:
		return "QuizQuestion"
	case KindGruntyQuestion:
		return "GruntyQuestion"
	case KindDemoInput:
		return "DemoInput"
	case KindSprite:
		return "Sprite_" + a.Sprite.FormatName()
	}
	return "Binary"
}

// relPath is the slash-separated manifest path for this asset at uid.
func (a *Asset) relPath(uid int) string {
	switch a.Kind {
	case KindAnimation:
		return fmt.Sprintf("anim/%04X.anim.bin", uid)
	case KindModel:
		return fmt.Sprintf("model/%04X.model.bin", uid)
	case KindLevelSetup:
		return fmt.Sprintf("lvl_setup/%04X.lvl_setup.bin", uid)
	case KindMidi:
		return fmt.Sprintf("midi/%04X.midi.bin", uid)
	case KindDialog:
		return fmt.Sprintf("dialog/%04X.dialog", uid)
	case KindQuizQuestion:
		return fmt.Sprintf("quiz_q/%04X.quiz_q", uid)
	case KindGruntyQuestion:
		return fmt.Sprintf("grunty_q/%04X.grunty_q", uid)
	case KindDemoInput:
		return fmt.Sprintf("demo/%04X.demo", uid)
	case KindSprite:
		return fmt.Sprintf("sprite/%04X.sprite.%s.bin", uid, strings.ToLower(a.Sprite.FormatName()))
	}
	return fmt.Sprintf("bin/%04X.bin", uid)
}

// WriteFile writes the asset's file form to path.
func (a *Asset) WriteFile(path string) error {
	switch a.Kind {
	case KindDialog:
		return a.Dialog.WriteFile(path)
	case KindQuizQuestion:
		return a.Question.writeFile(path, "QuizQuestion")
	case KindGruntyQuestion:
		return a.Question.writeFile(path, "GruntyQuestion")
	case KindDemoInput:
		return a.Demo.WriteFile(path)
	case KindSprite:
		return a.Sprite.WriteFiles(path)
	default:
		if err := os.WriteFile(path, a.Raw, 0644); err != nil {
			return fmt.Errorf("write %s: %v: %w", path, err, ErrIO)
		}
		return nil
	}
}

// ReadAssetFile loads the file form named by a manifest row. Only the text
// kinds parse; everything else round-trips as opaque bytes.
func ReadAssetFile(typeName, path string) (*Asset, error) {
	opaque := func(kind Kind) (*Asset, error) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %v: %w", path, err, ErrIO)
		}
		return &Asset{Kind: kind, Raw: raw}, nil
	}

	switch typeName {
	case "Dialog":
		d, err := ReadDialogFile(path)
		if err != nil {
			return nil, err
		}
		return &Asset{Kind: KindDialog, Dialog: d}, nil
	case "QuizQuestion":
		q, err := readQuestionFile(path, "QuizQuestion")
		if err != nil {
			return nil, err
		}
		return &Asset{Kind: KindQuizQuestion, Question: q}, nil
	case "GruntyQuestion":
		q, err := readQuestionFile(path, "GruntyQuestion")
		if err != nil {
			return nil, err
		}
		return &Asset{Kind: KindGruntyQuestion, Question: q}, nil
	case "DemoInput":
		d, err := ReadDemoInputFile(path)
		if err != nil {
			return nil, err
		}
		return &Asset{Kind: KindDemoInput, Demo: d}, nil
	case "Binary":
		return opaque(KindBinary)
	case "Animation":
		return opaque(KindAnimation)
	case "Model":
		return opaque(KindModel)
	case "LevelSetup":
		return opaque(KindLevelSetup)
	case "Midi":
		return opaque(KindMidi)
	}
	if strings.HasPrefix(typeName, "Sprite_") {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %v: %w", path, err, ErrIO)
		}
		return &Asset{Kind: KindSprite, Sprite: &Sprite{Format: FmtUnknown, Raw: raw}}, nil
	}
	return nil, fmt.Errorf("unknown asset type %q for %s: %w", typeName, path, ErrCodec)
}
