// Package scene decodes and encodes binary files made of a fixed header
// followed by records. Each record has fixed fields and variable-length
// sub-blocks addressed relative to the record start. The byte layout is
// described by a Layout, so one codec serves every format version.
package scene

import (
	"github.com/aktsk/ff7-medit/pkg/errs"
)

// FieldSpec is an unsigned little-endian integer of Width bytes (1, 2 or 4)
// at Offset. Offsets are relative to the record start, or to the file start
// for Layout.Count.
type FieldSpec struct {
	Name   string
	Offset int
	Width  int
}

func (f FieldSpec) end() int { return f.Offset + f.Width }

// BlockSpec is a sub-block whose length is stored in the record. Blocks
// without an Offset field are trailing: they follow the fixed part of the
// record, or the previous trailing block, back to back.
type BlockSpec struct {
	Name   string
	Length FieldSpec
	Offset *FieldSpec
}

// TableSpec is an array of Entries u16 offsets at Offset. Each present
// offset is relative to Base and addresses a block that runs to the next
// larger offset in the table or to End. 0xFFFF marks an absent entry.
type TableSpec struct {
	Name    string
	Offset  int
	Entries int
	Base    int
	End     int
}

const absentEntry = 0xFFFF

type Layout struct {
	Name       string
	HeaderSize int
	// Count locates the record count in the file header. When nil, the
	// count is (len(file) - HeaderSize) / RecordSize.
	Count        *FieldSpec
	RecordSize   int
	Fields       []FieldSpec
	Blocks       []BlockSpec
	Tables       []TableSpec
	MaxBlockSize int
}

func validWidth(w int) bool { return w == 1 || w == 2 || w == 4 }

// Validate reports layouts that cannot describe any file.
func (l *Layout) Validate() error {
	if l.RecordSize <= 0 {
		return errs.New(errs.KindMalformedRecord, "layout", "%s: record size %d", l.Name, l.RecordSize)
	}
	if l.HeaderSize < 0 {
		return errs.New(errs.KindMalformedRecord, "layout", "%s: header size %d", l.Name, l.HeaderSize)
	}
	if l.MaxBlockSize <= 0 && (len(l.Blocks) > 0 || len(l.Tables) > 0) {
		return errs.New(errs.KindMalformedRecord, "layout", "%s: blocks need a positive MaxBlockSize", l.Name)
	}
	if l.Count != nil {
		if !validWidth(l.Count.Width) || l.Count.Offset < 0 || l.Count.end() > l.HeaderSize {
			return errs.New(errs.KindMalformedRecord, "layout", "%s: count field outside the header", l.Name)
		}
	}
	inRecord := func(f FieldSpec) error {
		if !validWidth(f.Width) || f.Offset < 0 || f.end() > l.RecordSize {
			return errs.New(errs.KindMalformedRecord, "layout", "%s: field %q outside the record", l.Name, f.Name)
		}
		return nil
	}
	for _, f := range l.Fields {
		if err := inRecord(f); err != nil {
			return err
		}
	}
	for _, b := range l.Blocks {
		if err := inRecord(b.Length); err != nil {
			return err
		}
		if b.Offset == nil {
			if l.Count == nil {
				return errs.New(errs.KindMalformedRecord, "layout", "%s: trailing block %q needs a counted layout", l.Name, b.Name)
			}
			continue
		}
		if err := inRecord(*b.Offset); err != nil {
			return err
		}
	}
	for _, t := range l.Tables {
		if t.Entries <= 0 || t.Offset < 0 || t.Offset+2*t.Entries > l.RecordSize {
			return errs.New(errs.KindMalformedRecord, "layout", "%s: table %q outside the record", l.Name, t.Name)
		}
		if t.Base < 0 || t.Base >= t.End || t.End > l.RecordSize {
			return errs.New(errs.KindMalformedRecord, "layout", "%s: table %q region [%d, %d) outside the record", l.Name, t.Name, t.Base, t.End)
		}
	}
	return nil
}

// fixedEnd is the end of the last fixed field, table, or block descriptor.
func (l *Layout) fixedEnd() int {
	end := 0
	grow := func(e int) {
		if e > end {
			end = e
		}
	}
	for _, f := range l.Fields {
		grow(f.end())
	}
	for _, b := range l.Blocks {
		grow(b.Length.end())
		if b.Offset != nil {
			grow(b.Offset.end())
		}
	}
	for _, t := range l.Tables {
		grow(t.Offset + 2*t.Entries)
	}
	return end
}
