// Package bridge is the operation surface exposed to the CLI, the shell and
// the websocket server. Each operation resolves the target process again,
// so a restarted game is picked up without restarting the bridge.
package bridge

import (
	"errors"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/aktsk/ff7-medit/pkg/addrtable"
	"github.com/aktsk/ff7-medit/pkg/converter"
	"github.com/aktsk/ff7-medit/pkg/errs"
	"github.com/aktsk/ff7-medit/pkg/gamedata"
	"github.com/aktsk/ff7-medit/pkg/memory"
	"github.com/aktsk/ff7-medit/pkg/process"
	"github.com/aktsk/ff7-medit/pkg/scene/ff7"
)

// Locator is satisfied by *process.Locator.
type Locator interface {
	Find() (*process.Handle, error)
	Attach(pid int) (*process.Handle, error)
}

// Memory is satisfied by *memory.Accessor.
type Memory interface {
	Read(h *process.Handle, r memory.Region) ([]byte, error)
	Write(h *process.Handle, addr uint64, data []byte) error
	Freeze(h *process.Handle) (func() error, error)
}

type Bridge struct {
	table   *addrtable.Table
	procs   Locator
	mem     Memory
	reader  *gamedata.Reader
	pid     int
	gameDir string
	log     *zap.Logger
}

type Option func(*config)

type config struct {
	pid     int
	freeze  bool
	gameDir string
	log     *zap.Logger
}

// WithPID pins the bridge to one process id instead of searching by name.
func WithPID(pid int) Option {
	return func(c *config) { c.pid = pid }
}

// WithFreeze stops the target while a snapshot is taken.
func WithFreeze(on bool) Option {
	return func(c *config) { c.freeze = on }
}

// WithGameDirectory sets the directory DecodeSceneFile uses for an empty path.
func WithGameDirectory(dir string) Option {
	return func(c *config) { c.gameDir = dir }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *config) { c.log = log }
}

func New(table *addrtable.Table, procs Locator, mem Memory, opts ...Option) *Bridge {
	c := config{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&c)
	}
	ropts := []gamedata.Option{gamedata.WithLogger(c.log)}
	if c.freeze {
		ropts = append(ropts, gamedata.WithFreeze(mem))
	}
	return &Bridge{
		table:   table,
		procs:   procs,
		mem:     mem,
		reader:  gamedata.NewReader(table, mem, ropts...),
		pid:     c.pid,
		gameDir: c.gameDir,
		log:     c.log,
	}
}

func (b *Bridge) Table() *addrtable.Table { return b.table }

func (b *Bridge) resolve() (*process.Handle, error) {
	if b.pid != 0 {
		return b.procs.Attach(b.pid)
	}
	return b.procs.Find()
}

// IsRunning never fails.
func (b *Bridge) IsRunning() bool {
	_, err := b.resolve()
	return err == nil
}

// Fields lists the active address table in table order.
func (b *Bridge) Fields() []addrtable.Entry {
	return b.table.Entries()
}

// WriteBuffer writes data at the start of field. A Buffer field accepts a
// shorter prefix; Scalar and Struct fields must be written whole.
func (b *Bridge) WriteBuffer(field string, data []byte) error {
	e, err := b.table.Lookup(field)
	if err != nil {
		return err
	}
	if err := checkSize(e, len(data)); err != nil {
		return err
	}
	h, err := b.resolve()
	if err != nil {
		return err
	}
	if err := b.mem.Write(h, b.table.Address(e), data); err != nil {
		return err
	}
	b.log.Info("wrote field", zap.String("field", field), zap.Int("bytes", len(data)), zap.Stringer("process", h))
	return nil
}

func checkSize(e addrtable.Entry, n int) error {
	switch {
	case n == 0:
		return errs.New(errs.KindOutOfBounds, "write-buffer", "empty write to %s", e.Name)
	case n > e.Size:
		return errs.New(errs.KindOutOfBounds, "write-buffer", "%d bytes do not fit %s (%d bytes)", n, e.Name, e.Size)
	case e.Kind != addrtable.Buffer && n != e.Size:
		return errs.New(errs.KindOutOfBounds, "write-buffer", "%s field %s takes exactly %d bytes, got %d", e.Kind, e.Name, e.Size, n)
	}
	return nil
}

// WriteValue encodes a decimal or 0x-prefixed value in the width of a
// Scalar field and writes it.
func (b *Bridge) WriteValue(field, value string) error {
	e, err := b.table.Lookup(field)
	if err != nil {
		return err
	}
	if e.Kind != addrtable.Scalar {
		return errs.New(errs.KindOutOfBounds, "write-value", "%s is a %s field, use write-buffer", field, e.Kind)
	}
	data, err := converter.ScalarToBytes(value, e.Size)
	if errors.Is(err, strconv.ErrRange) {
		return errs.New(errs.KindOutOfBounds, "write-value", "%s does not fit %d bytes", value, e.Size)
	}
	if err != nil {
		return errs.Wrap(errs.KindOutOfBounds, "write-value", err)
	}
	return b.WriteBuffer(field, data)
}

func (b *Bridge) ReadSnapshot() (*gamedata.Snapshot, error) {
	h, err := b.resolve()
	if err != nil {
		return nil, err
	}
	return b.reader.Snapshot(h)
}

// ReadField reads a single table entry.
func (b *Bridge) ReadField(field string) (*gamedata.Field, error) {
	e, err := b.table.Lookup(field)
	if err != nil {
		return nil, err
	}
	h, err := b.resolve()
	if err != nil {
		return nil, err
	}
	region := memory.RegionOf(b.table, e)
	data, err := b.mem.Read(h, region)
	if err != nil {
		return nil, err
	}
	f := &gamedata.Field{
		Name:    e.Name,
		Kind:    e.Kind,
		Address: region.Address,
		Size:    e.Size,
		Data:    data,
	}
	if e.Kind == addrtable.Scalar {
		v := converter.BytesToScalar(data)
		f.Value = &v
	}
	return f, nil
}

// DecodeSceneFile decodes a scene.bin file, or the scene.bin of a game
// directory. An empty path uses the configured game directory.
func (b *Bridge) DecodeSceneFile(path string) ([]ff7.BattleScene, error) {
	if path == "" {
		path = b.gameDir
	}
	if path == "" {
		return nil, errs.New(errs.KindIoError, "decode-scene-file", "no path and no game directory configured")
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindIoError, "decode-scene-file", err)
	}
	var scenes []ff7.BattleScene
	if st.IsDir() {
		scenes, err = ff7.ReadGameDirectory(path)
	} else {
		scenes, err = ff7.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	b.log.Debug("decoded scenes", zap.String("path", path), zap.Int("scenes", len(scenes)))
	return scenes, nil
}
