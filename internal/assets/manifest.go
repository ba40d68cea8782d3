package assets

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// The manifest (assets.yaml) is the index of an extracted archive: the
// table length and one row per non-empty slot. Rows are emitted in uid
// order with fixed formatting so two extracts of the same archive are
// byte-identical.

type manifestFile struct {
	UID          int    `yaml:"uid"`
	Type         string `yaml:"type"`
	Compressed   bool   `yaml:"compressed"`
	Flags        int    `yaml:"flags"`
	RelativePath string `yaml:"relative_path"`
}

type manifestDoc struct {
	TblLen int            `yaml:"tbl_len"`
	Files  []manifestFile `yaml:"files"`
}

// WriteDir writes every asset's file form under dir along with assets.yaml.
func (f *AssetFolder) WriteDir(dir string) error {
	mf, err := os.Create(filepath.Join(dir, "assets.yaml"))
	if err != nil {
		return fmt.Errorf("create manifest: %v: %w", err, ErrIO)
	}
	defer mf.Close()

	w := bufio.NewWriter(mf)
	fmt.Fprintf(w, "tbl_len: 0x%X\n", len(f.Entries)+1)
	fmt.Fprintf(w, "files:\n")

	counts := make(map[string]int)
	empty := 0
	for i := range f.Entries {
		e := &f.Entries[i]
		if e.Asset == nil {
			empty++
			continue
		}
		rel := e.Asset.relPath(e.UID)
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return fmt.Errorf("create %s: %v: %w", filepath.Dir(full), err, ErrIO)
		}
		fmt.Fprintf(w, "  - {uid: 0x%04X, type: %-6s, compressed: %-5v, flags: 0x%04X, relative_path: %q}\n",
			e.UID, e.Asset.TypeName(), e.Slot.Compressed, e.Slot.TypeFlag, rel)
		if err := e.Asset.WriteFile(full); err != nil {
			return fmt.Errorf("uid 0x%04X: %w", e.UID, err)
		}
		counts[e.Asset.TypeName()]++
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write manifest: %v: %w", err, ErrIO)
	}
	if err := mf.Close(); err != nil {
		return fmt.Errorf("write manifest: %v: %w", err, ErrIO)
	}

	for name, n := range counts {
		log.Printf("  %s: %d", name, n)
	}
	log.Printf("extracted %d assets (%d empty slots) to %s", len(f.Entries)-empty, empty, dir)
	return nil
}

// ReadManifest loads assets.yaml and every file it references, producing a
// folder ready to encode. The table is widened to cover the highest uid.
func ReadManifest(path string) (*AssetFolder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %v: %w", err, ErrIO)
	}
	var doc manifestDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %v: %w", path, err, ErrCodec)
	}

	expect := doc.TblLen
	for _, row := range doc.Files {
		if row.UID < 0 {
			return nil, fmt.Errorf("manifest uid %d: %w", row.UID, ErrCodec)
		}
		if row.UID+1 > expect {
			expect = row.UID + 1
		}
	}

	folder := &AssetFolder{Entries: make([]AssetEntry, expect)}
	for i := range folder.Entries {
		folder.Entries[i] = emptyEntry(i)
	}

	baseDir := filepath.Dir(path)
	for _, row := range doc.Files {
		asset, err := ReadAssetFile(row.Type, filepath.Join(baseDir, filepath.FromSlash(row.RelativePath)))
		if err != nil {
			return nil, fmt.Errorf("uid 0x%04X: %w", row.UID, err)
		}
		folder.Entries[row.UID] = AssetEntry{
			UID:   row.UID,
			Slot:  Slot{Compressed: row.Compressed, TypeFlag: uint16(row.Flags)},
			Asset: asset,
		}
	}
	log.Printf("loaded %d files from %s", len(doc.Files), path)
	return folder, nil
}
