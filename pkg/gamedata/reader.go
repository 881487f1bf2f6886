package gamedata

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/aktsk/ff7-medit/pkg/addrtable"
	"github.com/aktsk/ff7-medit/pkg/converter"
	"github.com/aktsk/ff7-medit/pkg/errs"
	"github.com/aktsk/ff7-medit/pkg/memory"
	"github.com/aktsk/ff7-medit/pkg/process"
)

// MemoryReader is satisfied by *memory.Accessor.
type MemoryReader interface {
	Read(h *process.Handle, r memory.Region) ([]byte, error)
}

// Freezer is satisfied by *memory.Accessor.
type Freezer interface {
	Freeze(h *process.Handle) (func() error, error)
}

type Reader struct {
	table  *addrtable.Table
	mem    MemoryReader
	freeze Freezer
	now    func() time.Time
	log    *zap.Logger
}

type Option func(*Reader)

// WithFreeze stops the target for the duration of each snapshot.
func WithFreeze(f Freezer) Option {
	return func(r *Reader) { r.freeze = f }
}

func WithClock(now func() time.Time) Option {
	return func(r *Reader) { r.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(r *Reader) { r.log = log }
}

func NewReader(table *addrtable.Table, mem MemoryReader, opts ...Option) *Reader {
	r := &Reader{table: table, mem: mem, now: time.Now, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Snapshot reads every table field in table order. The first failing read
// fails the whole snapshot with that read's error; a partially filled
// snapshot is never returned. Nothing is cached between calls.
func (r *Reader) Snapshot(h *process.Handle) (snap *Snapshot, err error) {
	if h == nil {
		return nil, errs.New(errs.KindProcessGone, "snapshot", "no process handle")
	}
	if r.freeze != nil {
		thaw, ferr := r.freeze.Freeze(h)
		if ferr != nil {
			return nil, ferr
		}
		defer func() {
			if terr := thaw(); terr != nil {
				r.log.Warn("thaw failed", zap.Stringer("process", h), zap.Error(terr))
				if err == nil {
					snap, err = nil, fmt.Errorf("snapshot: %w", terr)
				}
			}
		}()
	}

	entries := r.table.Entries()
	fields := make([]Field, 0, len(entries))
	digest := xxhash.New()
	takenAt := r.now()
	for _, e := range entries {
		region := memory.RegionOf(r.table, e)
		data, err := r.mem.Read(h, region)
		if err != nil {
			r.log.Debug("snapshot aborted", zap.String("field", e.Name), zap.Error(err))
			return nil, err
		}
		f := Field{
			Name:    e.Name,
			Kind:    e.Kind,
			Address: region.Address,
			Size:    e.Size,
			Data:    append(HexBytes(nil), data...),
		}
		if e.Kind == addrtable.Scalar {
			v := converter.BytesToScalar(data)
			f.Value = &v
		}
		_, _ = digest.Write(data)
		fields = append(fields, f)
	}

	return &Snapshot{
		Build:    r.table.Build(),
		PID:      h.PID(),
		TakenAt:  takenAt,
		Frozen:   r.freeze != nil,
		Fields:   fields,
		Checksum: digest.Sum64(),
	}, nil
}
