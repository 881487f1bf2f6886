package dispatch

import (
	"context"

	"github.com/aktsk/ff7-medit/pkg/addrtable"
	"github.com/aktsk/ff7-medit/pkg/gamedata"
	"github.com/aktsk/ff7-medit/pkg/scene/ff7"
)

// Operations is satisfied by *bridge.Bridge.
type Operations interface {
	IsRunning() bool
	Fields() []addrtable.Entry
	WriteBuffer(field string, data []byte) error
	WriteValue(field, value string) error
	ReadSnapshot() (*gamedata.Snapshot, error)
	ReadField(field string) (*gamedata.Field, error)
	DecodeSceneFile(path string) ([]ff7.BattleScene, error)
}

type None struct{}

type FieldArgs struct {
	Field string `json:"field"`
}

type WriteBufferArgs struct {
	Field string            `json:"field"`
	Data  gamedata.HexBytes `json:"data"`
}

type WriteValueArgs struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type SceneFileArgs struct {
	Path string `json:"path"`
}

type WriteResult struct {
	Field   string `json:"field"`
	Written int    `json:"written"`
}

// Command names.
const (
	CmdIsRunning       = "is-running"
	CmdListFields      = "list-fields"
	CmdWriteBuffer     = "write-buffer"
	CmdWriteValue      = "write-value"
	CmdReadSnapshot    = "read-snapshot"
	CmdReadField       = "read-field"
	CmdDecodeSceneFile = "decode-scene-file"
)

// Bind registers every bridge operation on r.
func Bind(r *Registry, ops Operations) {
	r.Register(CmdIsRunning, Handle(func(context.Context, None) (bool, error) {
		return ops.IsRunning(), nil
	}))
	r.Register(CmdListFields, Handle(func(context.Context, None) ([]addrtable.Entry, error) {
		return ops.Fields(), nil
	}))
	r.Register(CmdWriteBuffer, Handle(func(_ context.Context, a WriteBufferArgs) (WriteResult, error) {
		if err := ops.WriteBuffer(a.Field, a.Data); err != nil {
			return WriteResult{}, err
		}
		return WriteResult{Field: a.Field, Written: len(a.Data)}, nil
	}))
	r.Register(CmdWriteValue, Handle(func(_ context.Context, a WriteValueArgs) (*gamedata.Field, error) {
		if err := ops.WriteValue(a.Field, a.Value); err != nil {
			return nil, err
		}
		return ops.ReadField(a.Field)
	}))
	r.Register(CmdReadSnapshot, Handle(func(context.Context, None) (*gamedata.Snapshot, error) {
		return ops.ReadSnapshot()
	}))
	r.Register(CmdReadField, Handle(func(_ context.Context, a FieldArgs) (*gamedata.Field, error) {
		return ops.ReadField(a.Field)
	}))
	r.Register(CmdDecodeSceneFile, Handle(func(_ context.Context, a SceneFileArgs) ([]ff7.BattleScene, error) {
		return ops.DecodeSceneFile(a.Path)
	}))
}
