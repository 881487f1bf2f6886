package scene

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aktsk/ff7-medit/pkg/errs"
)

// A 16 byte header holding the record count, then 32 byte records with a
// 2 byte block length at offset 4 and the block right after the record.
var counted = Layout{
	Name:       "counted",
	HeaderSize: 16,
	Count:      &FieldSpec{Name: "record_count", Offset: 0, Width: 4},
	RecordSize: 32,
	Fields: []FieldSpec{
		{Name: "id", Offset: 0, Width: 2},
		{Name: "flags", Offset: 2, Width: 1},
		{Name: "model", Offset: 8, Width: 4},
	},
	Blocks: []BlockSpec{
		{Name: "ai", Length: FieldSpec{Name: "ai_length", Offset: 4, Width: 2}},
	},
	MaxBlockSize: 1024,
}

func countedFile(blocks ...[]byte) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf, uint32(len(blocks)))
	copy(buf[4:], "SCNE")
	for i, b := range blocks {
		rec := make([]byte, 32)
		binary.LittleEndian.PutUint16(rec[0:], uint16(0x100+i))
		rec[2] = byte(i)
		binary.LittleEndian.PutUint16(rec[4:], uint16(len(b)))
		binary.LittleEndian.PutUint32(rec[8:], 0xC0DE0000+uint32(i))
		rec[31] = 0xEE
		buf = append(buf, rec...)
		buf = append(buf, b...)
	}
	return buf
}

func TestDecodeTwoRecords(t *testing.T) {
	a := []byte{1, 2, 3, 4, 5}
	b := []byte("eleven byte")
	buf := countedFile(a, b)
	require.Len(t, buf, 16+2*32+len(a)+len(b))

	f, err := Decode(buf, &counted)
	require.NoError(t, err)
	require.Len(t, f.Scenes, 2)
	assert.Equal(t, a, f.Scenes[0].Blocks[0].Data)
	assert.Equal(t, b, f.Scenes[1].Blocks[0].Data)
	assert.Equal(t, 32, f.Scenes[0].Blocks[0].Offset)
	assert.Equal(t, 16, f.Scenes[0].Offset)
	assert.Equal(t, 16+32+len(a), f.Scenes[1].Offset)
	assert.Len(t, f.Scenes[1].Raw, 32+len(b))
	assert.Nil(t, f.Trailer)

	id, ok := f.Scenes[1].Field("id")
	assert.True(t, ok)
	assert.Equal(t, uint32(0x101), id)
	model, _ := f.Scenes[1].Field("model")
	assert.Equal(t, uint32(0xC0DE0001), model)
	_, ok = f.Scenes[1].Field("nope")
	assert.False(t, ok)
}

func TestDecodeOneByteShort(t *testing.T) {
	buf := countedFile([]byte{1, 2, 3, 4, 5}, []byte("eleven byte"))
	_, err := Decode(buf[:len(buf)-1], &counted)
	assert.True(t, errors.Is(err, errs.ErrTruncatedFile), "got %v", err)
}

func TestDecodeEveryTruncation(t *testing.T) {
	buf := countedFile([]byte{1, 2, 3}, nil, []byte("tail block"))
	for n := 0; n < len(buf); n++ {
		cut := append([]byte{}, buf[:n]...)
		f, err := Decode(cut, &counted)
		assert.Nil(t, f, "cut at %d", n)
		assert.Equal(t, errs.KindTruncatedFile, errs.KindOf(err), "cut at %d: %v", n, err)
	}
}

func TestDecodeEmptyFile(t *testing.T) {
	f, err := Decode(countedFile(), &counted)
	require.NoError(t, err)
	assert.NotNil(t, f.Scenes)
	assert.Empty(t, f.Scenes)
}

func TestDecodeCountBeyondBuffer(t *testing.T) {
	buf := countedFile([]byte{1})
	binary.LittleEndian.PutUint32(buf, 0xFFFFFFFF)
	_, err := Decode(buf, &counted)
	assert.Equal(t, errs.KindTruncatedFile, errs.KindOf(err))
}

func TestDecodeOversizedBlock(t *testing.T) {
	buf := countedFile([]byte{1})
	binary.LittleEndian.PutUint16(buf[16+4:], 0xFFFF)
	_, err := Decode(buf, &counted)
	assert.Equal(t, errs.KindMalformedRecord, errs.KindOf(err))
}

func TestDecodeDoesNotAlias(t *testing.T) {
	buf := countedFile([]byte{1, 2, 3})
	f, err := Decode(buf, &counted)
	require.NoError(t, err)
	for i := range buf {
		buf[i] = 0
	}
	assert.Equal(t, []byte{1, 2, 3}, f.Scenes[0].Blocks[0].Data)
	assert.Equal(t, []byte("SCNE"), f.Header[4:8])
	assert.Equal(t, byte(0xEE), f.Scenes[0].Raw[31])
}

func TestDecodeIsDeterministic(t *testing.T) {
	buf := countedFile([]byte("abc"), []byte("defg"))
	first, err := Decode(buf, &counted)
	require.NoError(t, err)
	second, err := Decode(buf, &counted)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEncodeReproducesInput(t *testing.T) {
	buf := countedFile([]byte("abc"), nil, []byte("defg"))
	buf = append(buf, 0xFF, 0xFF)

	f, err := Decode(buf, &counted)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFF}, f.Trailer)

	out, err := Encode(f, &counted)
	require.NoError(t, err)
	assert.Equal(t, buf, out)
}

func TestEncodeAppliesEdits(t *testing.T) {
	f, err := Decode(countedFile([]byte("abc"), []byte("defg")), &counted)
	require.NoError(t, err)

	f.Scenes[0].Blocks[0].Data = []byte("a longer script")
	f.Scenes[0].Fields[1].Value = 9
	f.Scenes = f.Scenes[:1]

	out, err := Encode(f, &counted)
	require.NoError(t, err)
	again, err := Decode(out, &counted)
	require.NoError(t, err)
	require.Len(t, again.Scenes, 1)
	assert.Equal(t, []byte("a longer script"), again.Scenes[0].Blocks[0].Data)
	flags, _ := again.Scenes[0].Field("flags")
	assert.Equal(t, uint32(9), flags)

	f.Scenes[0].Fields[1].Value = 256
	_, err = Encode(f, &counted)
	assert.Equal(t, errs.KindMalformedRecord, errs.KindOf(err))
	assert.ErrorContains(t, err, "encode scene 0")

	f.Header = f.Header[:4]
	_, err = Encode(f, &counted)
	assert.True(t, errors.Is(err, errs.ErrMalformedRecord))
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.bin")
	require.NoError(t, os.WriteFile(path, countedFile([]byte("abc"), []byte("defg")), 0o644))

	f, err := ReadFile(path, &counted)
	require.NoError(t, err)
	require.Len(t, f.Scenes, 2)
	assert.Equal(t, []byte("defg"), f.Scenes[1].Blocks[0].Data)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.bin"), &counted)
	assert.Equal(t, errs.KindIoError, errs.KindOf(err))
}

// Fixed 64 byte records: a u16 count of AI scripts at 0, an offset
// addressed name block, and a two entry script table over [16, 64).
var fixed = Layout{
	Name:       "fixed",
	HeaderSize: 4,
	RecordSize: 64,
	Fields:     []FieldSpec{{Name: "kind", Offset: 0, Width: 1}},
	Blocks: []BlockSpec{
		{
			Name:   "name",
			Length: FieldSpec{Name: "name_length", Offset: 1, Width: 1},
			Offset: &FieldSpec{Name: "name_offset", Offset: 2, Width: 1},
		},
	},
	Tables:       []TableSpec{{Name: "script", Offset: 4, Entries: 2, Base: 32, End: 64}},
	MaxBlockSize: 32,
}

func fixedRecord(name string, scripts ...int) []byte {
	rec := make([]byte, 64)
	rec[0] = 7
	rec[1] = byte(len(name))
	rec[2] = 8
	copy(rec[8:], name)
	for i := 0; i < 2; i++ {
		off := 0xFFFF
		if i < len(scripts) {
			off = scripts[i]
		}
		binary.LittleEndian.PutUint16(rec[4+2*i:], uint16(off))
	}
	for i := 32; i < 64; i++ {
		rec[i] = byte(i)
	}
	return rec
}

func TestDecodeFixedRecords(t *testing.T) {
	buf := []byte{0, 0, 0, 0}
	buf = append(buf, fixedRecord("MP", 10, 0)...)
	buf = append(buf, fixedRecord("Guard", 4)...)

	f, err := Decode(buf, &fixed)
	require.NoError(t, err)
	require.Len(t, f.Scenes, 2)

	name, ok := f.Scenes[1].Block("name", 0)
	require.True(t, ok)
	assert.Equal(t, "Guard", string(name.Data))

	s0, ok := f.Scenes[0].Block("script", 0)
	require.True(t, ok)
	assert.Equal(t, 42, s0.Offset)
	assert.Len(t, s0.Data, 22, "runs to the region end")
	s1, ok := f.Scenes[0].Block("script", 1)
	require.True(t, ok)
	assert.Equal(t, []byte{32, 33, 34, 35, 36, 37, 38, 39, 40, 41}, s1.Data, "runs to the next offset")

	_, ok = f.Scenes[1].Block("script", 1)
	assert.False(t, ok, "absent entry")

	out, err := Encode(f, &fixed)
	require.NoError(t, err)
	assert.Equal(t, buf, out)
}

func TestDecodeFixedRecordsTruncated(t *testing.T) {
	buf := append([]byte{0, 0, 0, 0}, fixedRecord("MP", 0)...)
	_, err := Decode(buf[:len(buf)-10], &fixed)
	assert.Equal(t, errs.KindTruncatedFile, errs.KindOf(err))

	_, err = Decode(buf[:2], &fixed)
	assert.Equal(t, errs.KindTruncatedFile, errs.KindOf(err))

	f, err := Decode(buf[:4], &fixed)
	require.NoError(t, err)
	assert.Empty(t, f.Scenes)
}

func TestDecodeFixedRecordsMalformed(t *testing.T) {
	cases := map[string]func(rec []byte){
		"table offset outside region": func(rec []byte) { binary.LittleEndian.PutUint16(rec[4:], 40) },
		"name overlaps fixed fields":  func(rec []byte) { rec[2] = 3 },
		"name leaves the record":      func(rec []byte) { rec[2], rec[1] = 60, 8 },
		"name too long":               func(rec []byte) { rec[1] = 33 },
	}
	for name, corrupt := range cases {
		rec := fixedRecord("MP", 0)
		corrupt(rec)
		_, err := Decode(append([]byte{0, 0, 0, 0}, rec...), &fixed)
		assert.Equal(t, errs.KindMalformedRecord, errs.KindOf(err), name)
	}
}

func TestLayoutValidate(t *testing.T) {
	require.NoError(t, counted.Validate())
	require.NoError(t, fixed.Validate())

	broken := []Layout{
		{Name: "no records"},
		{Name: "count outside header", HeaderSize: 2, RecordSize: 4, Count: &FieldSpec{Offset: 0, Width: 4}},
		{Name: "bad width", RecordSize: 4, Fields: []FieldSpec{{Offset: 0, Width: 3}}},
		{Name: "field outside", RecordSize: 4, Fields: []FieldSpec{{Offset: 2, Width: 4}}},
		{Name: "uncounted trailing", RecordSize: 8, MaxBlockSize: 8, Blocks: []BlockSpec{{Length: FieldSpec{Offset: 0, Width: 1}}}},
		{Name: "no block limit", RecordSize: 8, Count: nil, Tables: []TableSpec{{Offset: 0, Entries: 1, Base: 2, End: 8}}},
		{Name: "table region", RecordSize: 8, MaxBlockSize: 8, Tables: []TableSpec{{Offset: 0, Entries: 1, Base: 6, End: 9}}},
	}
	for _, l := range broken {
		l := l
		assert.Equal(t, errs.KindMalformedRecord, errs.KindOf(l.Validate()), l.Name)
		_, err := Decode(make([]byte, 64), &l)
		assert.Equal(t, errs.KindMalformedRecord, errs.KindOf(err), l.Name)
		_, err = Encode(&File{}, &l)
		assert.Equal(t, errs.KindMalformedRecord, errs.KindOf(err), l.Name)
	}
}
