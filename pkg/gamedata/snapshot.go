// Package gamedata assembles point-in-time snapshots of the game state from
// the fields of an address table.
package gamedata

import (
	"time"

	"github.com/aktsk/ff7-medit/pkg/addrtable"
)

// Snapshot is a copy of every table field read at one instant. It holds no
// reference to process memory.
type Snapshot struct {
	Build    string    `json:"build"`
	PID      int       `json:"pid"`
	TakenAt  time.Time `json:"taken_at"`
	Frozen   bool      `json:"frozen"`
	Fields   []Field   `json:"fields"`
	Checksum uint64    `json:"checksum"`
}

type Field struct {
	Name    string         `json:"name"`
	Kind    addrtable.Kind `json:"kind"`
	Address uint64         `json:"address"`
	Size    int            `json:"size"`
	Data    HexBytes       `json:"data"`
	// Value is set for scalar fields only.
	Value *uint64 `json:"value,omitempty"`
}

func (s *Snapshot) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Uint returns the decoded value of a scalar field.
func (s *Snapshot) Uint(name string) (uint64, bool) {
	f, ok := s.Field(name)
	if !ok || f.Value == nil {
		return 0, false
	}
	return *f.Value, true
}
