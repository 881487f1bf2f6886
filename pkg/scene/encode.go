package scene

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/aktsk/ff7-medit/pkg/errs"
)

func putUint(b []byte, f FieldSpec, v uint64) error {
	if v >= 1<<(8*uint(f.Width)) {
		return fmt.Errorf("value %d of %q does not fit in %d bytes", v, f.Name, f.Width)
	}
	switch f.Width {
	case 1:
		b[f.Offset] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b[f.Offset:], uint16(v))
	default:
		binary.LittleEndian.PutUint32(b[f.Offset:], uint32(v))
	}
	return nil
}

// Encode serializes f with l. Field values and block lengths are taken
// from the scenes, so edits are reflected; bytes not described by the
// layout are carried over from Raw. Decoding and re-encoding an unmodified
// file reproduces it byte for byte.
func Encode(f *File, l *Layout) ([]byte, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if len(f.Header) != l.HeaderSize {
		return nil, errs.New(errs.KindMalformedRecord, "encode", "header is %d bytes, layout %s needs %d", len(f.Header), l.Name, l.HeaderSize)
	}
	var out bytes.Buffer
	header := clone(f.Header)
	if l.Count != nil {
		if err := putUint(header, *l.Count, uint64(len(f.Scenes))); err != nil {
			return nil, errs.Wrap(errs.KindMalformedRecord, "encode", err)
		}
	}
	out.Write(header)

	for i := range f.Scenes {
		rec, err := encodeRecord(&f.Scenes[i], l)
		if err != nil {
			return nil, errs.Wrap(errs.KindMalformedRecord, fmt.Sprintf("encode scene %d", i), err)
		}
		out.Write(rec)
	}
	out.Write(f.Trailer)
	return out.Bytes(), nil
}

func encodeRecord(s *Scene, l *Layout) ([]byte, error) {
	if len(s.Raw) < l.RecordSize {
		return nil, fmt.Errorf("raw record is %d bytes, need %d", len(s.Raw), l.RecordSize)
	}
	if len(s.Fields) != len(l.Fields) {
		return nil, fmt.Errorf("scene has %d fields, layout %s has %d", len(s.Fields), l.Name, len(l.Fields))
	}
	if len(s.Blocks) < len(l.Blocks) {
		return nil, fmt.Errorf("scene has %d blocks, layout %s needs %d", len(s.Blocks), l.Name, len(l.Blocks))
	}

	fixed := clone(s.Raw[:l.RecordSize])
	for i, spec := range l.Fields {
		if err := putUint(fixed, spec, uint64(s.Fields[i].Value)); err != nil {
			return nil, err
		}
	}

	type placed struct {
		at   int
		data []byte
	}
	places := []placed{}
	extent := l.RecordSize
	cursor := l.RecordSize
	for i, spec := range l.Blocks {
		b := s.Blocks[i]
		if len(b.Data) > l.MaxBlockSize {
			return nil, fmt.Errorf("block %q is %d bytes, limit %d", spec.Name, len(b.Data), l.MaxBlockSize)
		}
		if err := putUint(fixed, spec.Length, uint64(len(b.Data))); err != nil {
			return nil, err
		}
		at := cursor
		if spec.Offset != nil {
			at = b.Offset
			if err := putUint(fixed, *spec.Offset, uint64(at)); err != nil {
				return nil, err
			}
		} else {
			cursor += len(b.Data)
		}
		places = append(places, placed{at, b.Data})
		if at+len(b.Data) > extent {
			extent = at + len(b.Data)
		}
	}
	// Table blocks keep their offsets; the table itself is part of Raw.
	for _, b := range s.Blocks[len(l.Blocks):] {
		places = append(places, placed{b.Offset, b.Data})
		if b.Offset+len(b.Data) > extent {
			extent = b.Offset + len(b.Data)
		}
	}

	if l.Count == nil && extent != l.RecordSize {
		return nil, fmt.Errorf("record grew to %d bytes, layout %s has fixed %d byte records", extent, l.Name, l.RecordSize)
	}

	rec := make([]byte, extent)
	copy(rec, s.Raw)
	copy(rec, fixed)
	for _, p := range places {
		copy(rec[p.at:], p.data)
	}
	return rec, nil
}
