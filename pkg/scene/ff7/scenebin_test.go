package ff7

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aktsk/ff7-medit/pkg/converter"
	"github.com/aktsk/ff7-medit/pkg/errs"
	"github.com/aktsk/ff7-medit/pkg/scene"
)

func putText(t *testing.T, dst []byte, s string) {
	b, err := converter.StringToFF7Text(s)
	require.NoError(t, err)
	copy(dst, b)
}

// guardHoundScene builds one scene with two enemies, one populated
// formation, one attack and two enemy AI scripts.
func guardHoundScene(t *testing.T) []byte {
	s := bytes.Repeat([]byte{0xFF}, SceneSize)
	binary.LittleEndian.PutUint16(s[offEnemyIDs:], 0x0010)
	binary.LittleEndian.PutUint16(s[offEnemyIDs+2:], 0x0011)

	setup := s[offSetups:]
	binary.LittleEndian.PutUint16(setup[0x00:], 0x0012)
	binary.LittleEndian.PutUint16(setup[0x02:], 0x0000)
	binary.LittleEndian.PutUint16(setup[0x10:], 0xFFFE)
	setup[0x12] = 0x00
	setup[0x13] = 0x01

	fe := s[offFormations:]
	binary.LittleEndian.PutUint16(fe[0x00:], 0x0010)
	binary.LittleEndian.PutUint16(fe[0x02:], uint16(0xFF38)) // -200
	binary.LittleEndian.PutUint16(fe[0x04:], 0)
	binary.LittleEndian.PutUint16(fe[0x06:], 1500)
	binary.LittleEndian.PutUint16(fe[0x08:], 1)
	binary.LittleEndian.PutUint16(fe[0x0A:], 0)
	binary.LittleEndian.PutUint32(fe[0x0C:], 0)

	enemy := s[offEnemies : offEnemies+enemySize]
	putText(t, enemy, "Guard Hound")
	enemy[0x20] = 3
	binary.LittleEndian.PutUint32(enemy[0xA4:], 42)
	binary.LittleEndian.PutUint32(enemy[0xA8:], 20)
	binary.LittleEndian.PutUint32(enemy[0xAC:], 15)
	binary.LittleEndian.PutUint16(enemy[0x9E:], 2)

	binary.LittleEndian.PutUint16(s[offAttackIDs:], 0x0120)
	putText(t, s[offAttackNames:], "Tentacle")
	binary.LittleEndian.PutUint16(s[offAttacks+4:], 0)

	binary.LittleEndian.PutUint16(s[offEnemyAI:], 0x0000)
	binary.LittleEndian.PutUint16(s[offEnemyAI+2:], 0x0006)
	copy(s[offEnemyAI+6:], []byte{0x12, 0x20, 0x00, 0x60, 0x01, 0x73})
	return s
}

func patterned(n int) [][]byte {
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		s := bytes.Repeat([]byte{0xFF}, SceneSize)
		copy(s, fmt.Sprintf("scene %03d", i))
		out = append(out, s)
	}
	return out
}

func TestPackUnpack(t *testing.T) {
	scenes := patterned(20)
	packed, err := Pack(scenes)
	require.NoError(t, err)
	assert.Zero(t, len(packed)%BlockSize)
	assert.GreaterOrEqual(t, len(packed), 2*BlockSize, "16 pointers per block")

	got, err := Unpack(packed)
	require.NoError(t, err)
	assert.Equal(t, scenes, got)
}

func TestUnpackEmpty(t *testing.T) {
	got, err := Unpack(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Unpack(bytes.Repeat([]byte{0xFF}, BlockSize))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUnpackTruncated(t *testing.T) {
	packed, err := Pack(patterned(2))
	require.NoError(t, err)
	second := 4 * int(binary.LittleEndian.Uint32(packed[4:]))

	for _, n := range []int{1, blockHeaderSize - 1, blockHeaderSize + 10, second - 1, second + 8} {
		_, err := Unpack(packed[:n])
		assert.Equal(t, errs.KindTruncatedFile, errs.KindOf(err), "length %d", n)
	}
}

func TestUnpackMalformed(t *testing.T) {
	packed, err := Pack(patterned(2))
	require.NoError(t, err)

	intoHeader := bytes.Clone(packed)
	binary.LittleEndian.PutUint32(intoHeader[0:], 1)
	_, err = Unpack(intoHeader)
	assert.Equal(t, errs.KindMalformedRecord, errs.KindOf(err))

	reversed := bytes.Clone(packed)
	binary.LittleEndian.PutUint32(reversed[4:], binary.LittleEndian.Uint32(packed[0:]))
	_, err = Unpack(reversed)
	assert.Equal(t, errs.KindMalformedRecord, errs.KindOf(err))

	badMagic := bytes.Clone(packed)
	badMagic[blockHeaderSize] = 0x00
	_, err = Unpack(badMagic)
	assert.Equal(t, errs.KindMalformedRecord, errs.KindOf(err))

	short, err := deflate(make([]byte, 100))
	require.NoError(t, err)
	block := bytes.Repeat([]byte{0xFF}, BlockSize)
	binary.LittleEndian.PutUint32(block, blockHeaderSize/4)
	copy(block[blockHeaderSize:], short)
	_, err = Unpack(block)
	assert.Equal(t, errs.KindMalformedRecord, errs.KindOf(err))
}

func TestPackRejectsWrongSize(t *testing.T) {
	_, err := Pack([][]byte{make([]byte, 10)})
	assert.Equal(t, errs.KindMalformedRecord, errs.KindOf(err))
}

func TestDecodeBattleScenes(t *testing.T) {
	packed, err := Pack([][]byte{guardHoundScene(t), bytes.Repeat([]byte{0xFF}, SceneSize)})
	require.NoError(t, err)

	scenes, err := Decode(packed)
	require.NoError(t, err)
	require.Len(t, scenes, 2)

	s := scenes[0]
	assert.Equal(t, 0, s.Index)
	assert.Equal(t, [3]uint16{0x10, 0x11, 0xFFFF}, s.EnemyIDs)

	require.Len(t, s.Enemies, 2)
	hound := s.Enemies[0]
	assert.Equal(t, uint16(0x10), hound.ID)
	assert.Equal(t, "Guard Hound", hound.Name)
	assert.Equal(t, uint8(3), hound.Level)
	assert.Equal(t, uint32(42), hound.HP)
	assert.Equal(t, uint32(20), hound.EXP)
	assert.Equal(t, uint32(15), hound.Gil)
	assert.Equal(t, uint16(2), hound.AP)
	assert.Equal(t, uint16(0x11), s.Enemies[1].ID)
	assert.Equal(t, "", s.Enemies[1].Name)

	require.Len(t, s.Formations, 4)
	f := s.Formations[0]
	assert.Equal(t, uint16(0x12), f.Setup.BattleLocation)
	assert.Equal(t, uint8(0), f.Setup.LayoutType)
	assert.Equal(t, uint8(1), f.Setup.InitialCamera)
	assert.Equal(t, uint16(0xFFFE), f.Setup.Flags)
	require.Len(t, f.Enemies, 1)
	assert.Equal(t, FormationEnemy{EnemyID: 0x10, X: -200, Z: 1500, Row: 1}, f.Enemies[0])
	assert.Len(t, f.Camera, 48)
	for _, empty := range s.Formations[1:] {
		assert.Empty(t, empty.Enemies)
	}

	require.Len(t, s.Attacks, 1)
	assert.Equal(t, Attack{ID: 0x120, Name: "Tentacle"}, s.Attacks[0])

	assert.Equal(t, []byte{0x12, 0x20, 0x00, 0x60, 0x01, 0x73}, s.EnemyAI[0])
	assert.Equal(t, bytes.Repeat([]byte{0xFF}, SceneSize-offEnemyAI-6-6), s.EnemyAI[1])
	assert.Nil(t, s.EnemyAI[2])
	assert.Equal(t, [][]byte{nil, nil, nil, nil}, s.FormationAI)

	v, ok := s.Record.Field("battle_location_0")
	assert.True(t, ok)
	assert.Equal(t, uint32(0x12), v)

	empty := scenes[1]
	assert.Equal(t, 1, empty.Index)
	assert.Empty(t, empty.Enemies)
	assert.Empty(t, empty.Attacks)
}

func TestDecodeRejectsBadAITable(t *testing.T) {
	s := guardHoundScene(t)
	binary.LittleEndian.PutUint16(s[offEnemyAI+4:], 0x2000)
	packed, err := Pack([][]byte{s})
	require.NoError(t, err)

	_, err = Decode(packed)
	assert.Equal(t, errs.KindMalformedRecord, errs.KindOf(err))
}

func TestReadGameDirectory(t *testing.T) {
	dir := t.TempDir()
	packed, err := Pack([][]byte{guardHoundScene(t)})
	require.NoError(t, err)
	path := filepath.Join(dir, SceneFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, packed, 0o644))

	scenes, err := ReadGameDirectory(dir)
	require.NoError(t, err)
	require.Len(t, scenes, 1)
	assert.Equal(t, "Guard Hound", scenes[0].Enemies[0].Name)

	_, err = ReadGameDirectory(filepath.Join(dir, "missing"))
	assert.Equal(t, errs.KindIoError, errs.KindOf(err))
}

func TestScenesReencode(t *testing.T) {
	raw := [][]byte{guardHoundScene(t), bytes.Repeat([]byte{0xFF}, SceneSize)}
	packed, err := Pack(raw)
	require.NoError(t, err)
	scenes, err := Decode(packed)
	require.NoError(t, err)

	f := &scene.File{}
	for _, s := range scenes {
		f.Scenes = append(f.Scenes, *s.Record)
	}
	out, err := scene.Encode(f, &SceneLayout)
	require.NoError(t, err)
	assert.Equal(t, bytes.Join(raw, nil), out)

	for i, fld := range f.Scenes[0].Fields {
		if fld.Name == "battle_location_0" {
			f.Scenes[0].Fields[i].Value = 0x0099
		}
	}
	out, err = scene.Encode(f, &SceneLayout)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0099), binary.LittleEndian.Uint16(out[offSetups:]))

	repacked, err := Pack([][]byte{out[:SceneSize], out[SceneSize:]})
	require.NoError(t, err)
	again, err := Decode(repacked)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0099), again[0].Formations[0].Setup.BattleLocation)
}
