// Package ff7 reads FINAL FANTASY VII battle/scene.bin: a container of
// gzip compressed, fixed size battle scene records.
package ff7

import (
	"fmt"

	"github.com/aktsk/ff7-medit/pkg/scene"
)

// Record offsets inside one decompressed scene.
const (
	SceneSize = 0x1E80

	offEnemyIDs    = 0x0000
	offSetups      = 0x0008
	offCameras     = 0x0058
	offFormations  = 0x0118
	offEnemies     = 0x0298
	offAttacks     = 0x04C0
	offAttackIDs   = 0x0840
	offAttackNames = 0x0880
	offFormationAI = 0x0C80
	offEnemyAI     = 0x0E80

	setupSize          = 20
	formationEntrySize = 16
	enemySize          = 184
	attackSize         = 28
	attackNameSize     = 32

	enemySlots          = 3
	formationSlots      = 4
	enemiesPerFormation = 6
	attackSlots         = 32

	noEntry = 0xFFFF
)

// SceneLayout describes decompressed scene records laid end to end.
var SceneLayout = newSceneLayout()

func newSceneLayout() scene.Layout {
	fields := []scene.FieldSpec{}
	for i := 0; i < enemySlots; i++ {
		fields = append(fields, scene.FieldSpec{Name: fmt.Sprintf("enemy_id_%d", i), Offset: offEnemyIDs + 2*i, Width: 2})
	}
	for i := 0; i < formationSlots; i++ {
		base := offSetups + setupSize*i
		fields = append(fields,
			scene.FieldSpec{Name: fmt.Sprintf("battle_location_%d", i), Offset: base, Width: 2},
			scene.FieldSpec{Name: fmt.Sprintf("battle_flags_%d", i), Offset: base + 0x10, Width: 2},
			scene.FieldSpec{Name: fmt.Sprintf("battle_layout_type_%d", i), Offset: base + 0x12, Width: 1},
		)
	}
	return scene.Layout{
		Name:       "ff7-battle-scene",
		RecordSize: SceneSize,
		Fields:     fields,
		Tables: []scene.TableSpec{
			{Name: "formation_ai", Offset: offFormationAI, Entries: formationSlots, Base: offFormationAI + 2*formationSlots, End: offEnemyAI},
			{Name: "enemy_ai", Offset: offEnemyAI, Entries: enemySlots, Base: offEnemyAI + 2*enemySlots, End: SceneSize},
		},
		MaxBlockSize: SceneSize - offEnemyAI,
	}
}
