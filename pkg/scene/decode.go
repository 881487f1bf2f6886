package scene

import (
	"encoding/binary"
	"os"
	"sort"

	"github.com/aktsk/ff7-medit/pkg/errs"
)

func readUint(b []byte, f FieldSpec) uint32 {
	switch f.Width {
	case 1:
		return uint32(b[f.Offset])
	case 2:
		return uint32(binary.LittleEndian.Uint16(b[f.Offset:]))
	default:
		return binary.LittleEndian.Uint32(b[f.Offset:])
	}
}

// fits reports whether [start, start+n) lies inside [0, limit).
func fits(start, n, limit int) bool {
	return start >= 0 && n >= 0 && start <= limit && n <= limit-start
}

func clone(b []byte) []byte {
	return append([]byte{}, b...)
}

// ReadFile loads path and decodes it with l.
func ReadFile(path string, l *Layout) (*File, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindIoError, "read scene file", err)
	}
	return Decode(buf, l)
}

// Decode parses buf. Every extent is checked against len(buf) before it is
// sliced, and every kept slice is copied, so buf may be reused as soon as
// Decode returns.
func Decode(buf []byte, l *Layout) (*File, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if len(buf) < l.HeaderSize {
		return nil, errs.New(errs.KindTruncatedFile, "decode", "%d bytes is shorter than the %d byte header", len(buf), l.HeaderSize)
	}
	body := len(buf) - l.HeaderSize

	var count int
	if l.Count != nil {
		declared := uint64(readUint(buf, *l.Count))
		if declared > uint64(body/l.RecordSize) {
			return nil, errs.New(errs.KindTruncatedFile, "decode", "header declares %d records but only %d bytes follow", declared, body)
		}
		count = int(declared)
	} else {
		if body%l.RecordSize != 0 {
			return nil, errs.New(errs.KindTruncatedFile, "decode", "%d bytes is not a whole number of %d byte records", body, l.RecordSize)
		}
		count = body / l.RecordSize
	}

	f := &File{
		Header: clone(buf[:l.HeaderSize]),
		Scenes: make([]Scene, 0, count),
	}
	pos := l.HeaderSize
	for i := 0; i < count; i++ {
		s, extent, err := decodeRecord(buf, pos, l)
		if err != nil {
			return nil, err
		}
		s.Index = i
		f.Scenes = append(f.Scenes, s)
		pos += extent
	}
	if pos < len(buf) {
		f.Trailer = clone(buf[pos:])
	}
	return f, nil
}

func decodeRecord(buf []byte, pos int, l *Layout) (Scene, int, error) {
	if !fits(pos, l.RecordSize, len(buf)) {
		return Scene{}, 0, errs.New(errs.KindTruncatedFile, "decode", "record at %d needs %d bytes, %d left", pos, l.RecordSize, len(buf)-pos)
	}
	rec := buf[pos : pos+l.RecordSize]
	s := Scene{Offset: pos, Fields: make([]Field, 0, len(l.Fields))}
	for _, spec := range l.Fields {
		s.Fields = append(s.Fields, Field{Name: spec.Name, Value: readUint(rec, spec)})
	}

	// Record-relative positions from here on.
	extent := l.RecordSize
	cursor := l.RecordSize
	fixedEnd := l.fixedEnd()
	for _, spec := range l.Blocks {
		n := int(readUint(rec, spec.Length))
		if n > l.MaxBlockSize {
			return Scene{}, 0, errs.New(errs.KindMalformedRecord, "decode", "record at %d: block %q declares %d bytes, limit %d", pos, spec.Name, n, l.MaxBlockSize)
		}
		start := cursor
		if spec.Offset != nil {
			start = int(readUint(rec, *spec.Offset))
			if start < fixedEnd {
				return Scene{}, 0, errs.New(errs.KindMalformedRecord, "decode", "record at %d: block %q at %d overlaps the fixed fields", pos, spec.Name, start)
			}
			if l.Count == nil && !fits(start, n, l.RecordSize) {
				return Scene{}, 0, errs.New(errs.KindMalformedRecord, "decode", "record at %d: block %q leaves the fixed-size record", pos, spec.Name)
			}
		} else {
			cursor += n
		}
		if !fits(pos, start, len(buf)) || !fits(pos+start, n, len(buf)) {
			return Scene{}, 0, errs.New(errs.KindTruncatedFile, "decode", "record at %d: block %q [%d, %d) runs past the end of the file", pos, spec.Name, start, start+n)
		}
		s.Blocks = append(s.Blocks, Block{Name: spec.Name, Offset: start, Data: clone(buf[pos+start : pos+start+n])})
		if start+n > extent {
			extent = start + n
		}
	}

	for _, t := range l.Tables {
		blocks, err := decodeTable(rec, pos, t, l.MaxBlockSize)
		if err != nil {
			return Scene{}, 0, err
		}
		s.Blocks = append(s.Blocks, blocks...)
	}

	s.Raw = clone(buf[pos : pos+extent])
	return s, extent, nil
}

func decodeTable(rec []byte, pos int, t TableSpec, maxBlock int) ([]Block, error) {
	region := t.End - t.Base
	offsets := make([]int, 0, t.Entries)
	for i := 0; i < t.Entries; i++ {
		offsets = append(offsets, int(binary.LittleEndian.Uint16(rec[t.Offset+2*i:])))
	}
	present := []int{}
	for i, off := range offsets {
		if off == absentEntry {
			continue
		}
		if off >= region {
			return nil, errs.New(errs.KindMalformedRecord, "decode", "record at %d: %s[%d] offset %d outside its %d byte region", pos, t.Name, i, off, region)
		}
		present = append(present, off)
	}
	sort.Ints(present)

	blocks := []Block{}
	for i, off := range offsets {
		if off == absentEntry {
			continue
		}
		end := region
		if j := sort.SearchInts(present, off+1); j < len(present) {
			end = present[j]
		}
		if end-off > maxBlock {
			return nil, errs.New(errs.KindMalformedRecord, "decode", "record at %d: %s[%d] is %d bytes, limit %d", pos, t.Name, i, end-off, maxBlock)
		}
		start := t.Base + off
		blocks = append(blocks, Block{Name: t.Name, Slot: i, Offset: start, Data: clone(rec[start : t.Base+end])})
	}
	return blocks, nil
}
