package ff7

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/aktsk/ff7-medit/pkg/converter"
	"github.com/aktsk/ff7-medit/pkg/errs"
	"github.com/aktsk/ff7-medit/pkg/scene"
)

// SceneFile is scene.bin relative to the game installation directory.
var SceneFile = filepath.Join("data", "lang-en", "battle", "scene.bin")

type BattleScene struct {
	Index       int          `json:"index"`
	EnemyIDs    [3]uint16    `json:"enemy_ids"`
	Formations  []Formation  `json:"formations"`
	Enemies     []Enemy      `json:"enemies"`
	Attacks     []Attack     `json:"attacks"`
	FormationAI [][]byte     `json:"formation_ai"`
	EnemyAI     [][]byte     `json:"enemy_ai"`
	Record      *scene.Scene `json:"-"`
}

type BattleSetup struct {
	BattleLocation  uint16    `json:"battle_location"`
	NextFormation   uint16    `json:"next_formation"`
	EscapeCounter   uint16    `json:"escape_counter"`
	ArenaCandidates [4]uint16 `json:"arena_candidates"`
	Flags           uint16    `json:"flags"`
	LayoutType      uint8     `json:"battle_layout_type"`
	InitialCamera   uint8     `json:"initial_camera"`
}

type Formation struct {
	Setup   BattleSetup      `json:"setup"`
	Camera  []byte           `json:"camera"`
	Enemies []FormationEnemy `json:"enemies"`
}

type FormationEnemy struct {
	EnemyID          uint16 `json:"enemy_id"`
	X                int16  `json:"x"`
	Y                int16  `json:"y"`
	Z                int16  `json:"z"`
	Row              uint16 `json:"row"`
	CoverFlags       uint16 `json:"cover_flags"`
	InitialCondition uint32 `json:"initial_condition"`
}

type Enemy struct {
	ID           uint16 `json:"id"`
	Name         string `json:"name"`
	Level        uint8  `json:"level"`
	Speed        uint8  `json:"speed"`
	Luck         uint8  `json:"luck"`
	Evade        uint8  `json:"evade"`
	Strength     uint8  `json:"strength"`
	Defense      uint8  `json:"defense"`
	Magic        uint8  `json:"magic"`
	MagicDefense uint8  `json:"magic_defense"`
	MP           uint16 `json:"mp"`
	AP           uint16 `json:"ap"`
	HP           uint32 `json:"hp"`
	EXP          uint32 `json:"exp"`
	Gil          uint32 `json:"gil"`
}

type Attack struct {
	ID     uint16 `json:"id"`
	Name   string `json:"name"`
	MPCost uint16 `json:"mp_cost"`
}

var le = binary.LittleEndian

// Decode unpacks scene.bin and returns its battle scenes in file order.
func Decode(buf []byte) ([]BattleScene, error) {
	raw, err := Unpack(buf)
	if err != nil {
		return nil, err
	}
	f, err := scene.Decode(bytes.Join(raw, nil), &SceneLayout)
	if err != nil {
		return nil, err
	}
	out := make([]BattleScene, 0, len(f.Scenes))
	for i := range f.Scenes {
		out = append(out, newBattleScene(&f.Scenes[i]))
	}
	return out, nil
}

func ReadFile(path string) ([]BattleScene, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindIoError, "read-scene-file", err)
	}
	return Decode(buf)
}

// ReadGameDirectory reads scene.bin from an installed game.
func ReadGameDirectory(dir string) ([]BattleScene, error) {
	return ReadFile(filepath.Join(dir, SceneFile))
}

func newBattleScene(s *scene.Scene) BattleScene {
	r := s.Raw
	bs := BattleScene{
		Index:       s.Index,
		Formations:  []Formation{},
		Enemies:     []Enemy{},
		Attacks:     []Attack{},
		FormationAI: make([][]byte, formationSlots),
		EnemyAI:     make([][]byte, enemySlots),
		Record:      s,
	}
	for i := range bs.EnemyIDs {
		bs.EnemyIDs[i] = le.Uint16(r[offEnemyIDs+2*i:])
	}

	for i := 0; i < formationSlots; i++ {
		f := Formation{
			Setup:   parseSetup(r[offSetups+setupSize*i:]),
			Camera:  r[offCameras+48*i : offCameras+48*(i+1)],
			Enemies: []FormationEnemy{},
		}
		for j := 0; j < enemiesPerFormation; j++ {
			e := parseFormationEnemy(r[offFormations+formationEntrySize*(enemiesPerFormation*i+j):])
			if e.EnemyID == noEntry {
				continue
			}
			f.Enemies = append(f.Enemies, e)
		}
		bs.Formations = append(bs.Formations, f)
		if b, ok := s.Block("formation_ai", i); ok {
			bs.FormationAI[i] = b.Data
		}
	}

	for i, id := range bs.EnemyIDs {
		if b, ok := s.Block("enemy_ai", i); ok {
			bs.EnemyAI[i] = b.Data
		}
		if id == noEntry {
			continue
		}
		bs.Enemies = append(bs.Enemies, parseEnemy(id, r[offEnemies+enemySize*i:offEnemies+enemySize*(i+1)]))
	}

	for i := 0; i < attackSlots; i++ {
		id := le.Uint16(r[offAttackIDs+2*i:])
		if id == noEntry {
			continue
		}
		bs.Attacks = append(bs.Attacks, Attack{
			ID:     id,
			Name:   converter.FF7TextToString(r[offAttackNames+attackNameSize*i : offAttackNames+attackNameSize*(i+1)]),
			MPCost: le.Uint16(r[offAttacks+attackSize*i+4:]),
		})
	}
	return bs
}

func parseSetup(b []byte) BattleSetup {
	s := BattleSetup{
		BattleLocation: le.Uint16(b[0x00:]),
		NextFormation:  le.Uint16(b[0x02:]),
		EscapeCounter:  le.Uint16(b[0x04:]),
		Flags:          le.Uint16(b[0x10:]),
		LayoutType:     b[0x12],
		InitialCamera:  b[0x13],
	}
	for i := range s.ArenaCandidates {
		s.ArenaCandidates[i] = le.Uint16(b[0x08+2*i:])
	}
	return s
}

func parseFormationEnemy(b []byte) FormationEnemy {
	return FormationEnemy{
		EnemyID:          le.Uint16(b[0x00:]),
		X:                int16(le.Uint16(b[0x02:])),
		Y:                int16(le.Uint16(b[0x04:])),
		Z:                int16(le.Uint16(b[0x06:])),
		Row:              le.Uint16(b[0x08:]),
		CoverFlags:       le.Uint16(b[0x0A:]),
		InitialCondition: le.Uint32(b[0x0C:]),
	}
}

func parseEnemy(id uint16, b []byte) Enemy {
	return Enemy{
		ID:           id,
		Name:         converter.FF7TextToString(b[:32]),
		Level:        b[0x20],
		Speed:        b[0x21],
		Luck:         b[0x22],
		Evade:        b[0x23],
		Strength:     b[0x24],
		Defense:      b[0x25],
		Magic:        b[0x26],
		MagicDefense: b[0x27],
		MP:           le.Uint16(b[0x9C:]),
		AP:           le.Uint16(b[0x9E:]),
		HP:           le.Uint32(b[0xA4:]),
		EXP:          le.Uint32(b[0xA8:]),
		Gil:          le.Uint32(b[0xAC:]),
	}
}
