package assets

import (
	"encoding/binary"
	"fmt"

	"github.com/MittenzHugg/bk-asset-tool/internal/rarezip"
)

// Archive layout, all big-endian:
//
//	0x00      u32  slot count (sentinel included)
//	0x04      u32  reserved, 0xFFFFFFFF
//	0x08      N×8  slot records: u32 offset, u8 0, u8 compressed, u16 flags
//	0x08+8N   payload region, concatenated
//
// Slot offsets are relative to the payload region; each slot's payload ends
// where the next slot's begins, so the final slot only bounds its
// predecessor.
const (
	archiveHeaderSize = 8
	slotSize          = 8

	flagEmpty    = 4
	flagContinue = 2
)

// Slot is one 8-byte record in the archive table.
type Slot struct {
	Offset     uint32
	Compressed bool
	TypeFlag   uint16
}

func decodeSlot(b []byte) Slot {
	return Slot{
		Offset:     binary.BigEndian.Uint32(b[0:4]),
		Compressed: binary.BigEndian.Uint16(b[4:6]) != 0,
		TypeFlag:   binary.BigEndian.Uint16(b[6:8]),
	}
}

func (s Slot) encode(out []byte) {
	binary.BigEndian.PutUint32(out[0:4], s.Offset)
	out[4] = 0x00
	out[5] = 0x00
	if s.Compressed {
		out[5] = 0x01
	}
	binary.BigEndian.PutUint16(out[6:8], s.TypeFlag)
}

// AssetEntry pairs a slot with its parsed payload; Asset is nil for empty
// slots.
type AssetEntry struct {
	UID     int
	Segment int
	Slot    Slot
	Asset   *Asset
}

func emptyEntry(uid int) AssetEntry {
	return AssetEntry{UID: uid, Slot: Slot{TypeFlag: flagEmpty}}
}

// AssetFolder is the in-memory archive: entries dense by uid. A folder
// parsed from an archive excludes the sentinel slot; a folder loaded from a
// manifest holds max(tbl_len, highest uid + 1) entries, and when its last
// entry is empty Encode uses that entry as the sentinel.
type AssetFolder struct {
	Entries []AssetEntry
}

// ParseArchive decodes an archive binary into a folder.
//
// Non-empty slots are walked with a running segment counter that starts at
// 0 with a previous-flag register of 0; the counter advances when a slot's
// flag is not 2 and differs from the register in bit 1, and the register
// updates only on advance. The segment index selects the payload kind.
func ParseArchive(b []byte) (*AssetFolder, error) {
	if len(b) < archiveHeaderSize {
		return nil, fmt.Errorf("archive too small: %d bytes: %w", len(b), ErrFormat)
	}
	count := int(binary.BigEndian.Uint32(b[0:4]))
	if count < 1 {
		return nil, fmt.Errorf("archive slot count %d: %w", count, ErrFormat)
	}
	tableEnd := archiveHeaderSize + slotSize*count
	if len(b) < tableEnd {
		return nil, fmt.Errorf("slot table truncated: %d slots need %d bytes, have %d: %w", count, tableEnd, len(b), ErrFormat)
	}
	slots := make([]Slot, count)
	for i := range slots {
		slots[i] = decodeSlot(b[archiveHeaderSize+slotSize*i:])
	}
	data := b[tableEnd:]

	folder := &AssetFolder{Entries: make([]AssetEntry, 0, count-1)}
	segment := 0
	prev := uint16(0)
	for i := 0; i+1 < count; i++ {
		s := slots[i]
		if s.TypeFlag == flagEmpty {
			folder.Entries = append(folder.Entries, AssetEntry{UID: i, Slot: s})
			continue
		}
		if s.TypeFlag != flagContinue && prev&2 != s.TypeFlag&2 {
			segment++
			prev = s.TypeFlag
		}

		start, end := int(s.Offset), int(slots[i+1].Offset)
		if start > end || end > len(data) {
			return nil, fmt.Errorf("uid 0x%04X: payload range [%#x,%#x) outside data region of %d bytes: %w", i, start, end, len(data), ErrFormat)
		}
		payload := data[start:end]
		if s.Compressed {
			var err error
			payload, err = rarezip.Unzip(payload)
			if err != nil {
				return nil, fmt.Errorf("uid 0x%04X: %v: %w", i, err, ErrCompression)
			}
		}
		asset, err := ResolveAsset(segment, payload)
		if err != nil {
			return nil, fmt.Errorf("uid 0x%04X (segment %d): %w", i, segment, err)
		}
		folder.Entries = append(folder.Entries, AssetEntry{UID: i, Segment: segment, Slot: s, Asset: asset})
	}
	return folder, nil
}

// Encode serializes the folder back to archive bytes. If the final entry
// holds a payload, a sentinel entry is appended so the table stays bounded.
// Offsets are reassigned as the running sum of emitted payload lengths.
func (f *AssetFolder) Encode() ([]byte, error) {
	entries := f.Entries
	if n := len(entries); n == 0 || entries[n-1].Asset != nil {
		entries = append(entries, emptyEntry(len(entries)))
	}

	payloads := make([][]byte, len(entries))
	total := 0
	for i := range entries {
		e := &entries[i]
		if e.Asset == nil {
			continue
		}
		raw := e.Asset.Encode()
		if e.Slot.Compressed {
			z, err := rarezip.Zip(raw)
			if err != nil {
				return nil, fmt.Errorf("uid 0x%04X: %v: %w", e.UID, err, ErrCompression)
			}
			payloads[i] = z
		} else {
			payloads[i] = raw
		}
		total += len(payloads[i])
	}

	out := make([]byte, archiveHeaderSize+slotSize*len(entries), archiveHeaderSize+slotSize*len(entries)+total)
	binary.BigEndian.PutUint32(out[0:4], uint32(len(entries)))
	binary.BigEndian.PutUint32(out[4:8], 0xFFFFFFFF)

	off := uint32(0)
	for i := range entries {
		s := entries[i].Slot
		s.Offset = off
		s.encode(out[archiveHeaderSize+slotSize*i:])
		off += uint32(len(payloads[i]))
	}
	for _, p := range payloads {
		out = append(out, p...)
	}
	return out, nil
}
