// Package memory reads and writes the address space of the target process.
//
// Every call revalidates the process handle immediately before touching
// memory, and every call maps to a single bounded read or write. Nothing is
// retried and no address is derived here: callers pass either a region
// resolved from an address table entry or an explicit region.
package memory

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/aktsk/ff7-medit/pkg/addrtable"
	"github.com/aktsk/ff7-medit/pkg/errs"
	"github.com/aktsk/ff7-medit/pkg/process"
)

type Region struct {
	Address uint64 `json:"address"`
	Length  int    `json:"length"`
}

// RegionOf resolves a table entry to the region it covers.
func RegionOf(t *addrtable.Table, e addrtable.Entry) Region {
	return Region{Address: t.Address(e), Length: e.Size}
}

func (r Region) End() uint64 { return r.Address + uint64(r.Length) }

func (r Region) String() string {
	return fmt.Sprintf("[0x%x, 0x%x)", r.Address, r.End())
}

func (r Region) check(op string) error {
	if r.Length <= 0 {
		return errs.New(errs.KindOutOfBounds, op, "empty region at 0x%x", r.Address)
	}
	if r.Address > math.MaxUint64-uint64(r.Length) {
		return errs.New(errs.KindOutOfBounds, op, "region at 0x%x of %d bytes overflows", r.Address, r.Length)
	}
	return nil
}

// Liveness is satisfied by *process.Locator.
type Liveness interface {
	IsAlive(h *process.Handle) bool
}

type Accessor struct {
	live Liveness
	log  *zap.Logger
}

type Option func(*Accessor)

func WithLogger(log *zap.Logger) Option {
	return func(a *Accessor) { a.log = log }
}

func NewAccessor(live Liveness, opts ...Option) *Accessor {
	a := &Accessor{live: live, log: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Read returns exactly r.Length bytes starting at r.Address. A short read
// is reported as PartialRead rather than returned truncated.
func (a *Accessor) Read(h *process.Handle, r Region) ([]byte, error) {
	if err := r.check("read"); err != nil {
		return nil, err
	}
	if !a.live.IsAlive(h) {
		return nil, errs.New(errs.KindProcessGone, "read", "%s is no longer running", h)
	}
	buf := make([]byte, r.Length)
	if err := readAt(h.PID(), r.Address, buf); err != nil {
		a.log.Debug("read failed", zap.Int("pid", h.PID()), zap.Stringer("region", r), zap.Error(err))
		return nil, err
	}
	a.log.Debug("read", zap.Int("pid", h.PID()), zap.Stringer("region", r))
	return buf, nil
}

// Write stores data at addr. Failed writes are never retried; a partial
// write may already have modified target memory.
func (a *Accessor) Write(h *process.Handle, addr uint64, data []byte) error {
	r := Region{Address: addr, Length: len(data)}
	if err := r.check("write"); err != nil {
		return err
	}
	if !a.live.IsAlive(h) {
		return errs.New(errs.KindProcessGone, "write", "%s is no longer running", h)
	}
	if err := writeAt(h.PID(), addr, data); err != nil {
		a.log.Warn("write failed", zap.Int("pid", h.PID()), zap.Stringer("region", r), zap.Error(err))
		return err
	}
	a.log.Debug("write", zap.Int("pid", h.PID()), zap.Stringer("region", r))
	return nil
}

// Freeze stops every thread of the target until the returned thaw function
// is called. thaw must be called from the goroutine that called Freeze.
func (a *Accessor) Freeze(h *process.Handle) (thaw func() error, err error) {
	if !a.live.IsAlive(h) {
		return nil, errs.New(errs.KindProcessGone, "freeze", "%s is no longer running", h)
	}
	thaw, err = freeze(h.PID(), a.log)
	if err != nil {
		return nil, err
	}
	a.log.Debug("froze target", zap.Int("pid", h.PID()))
	return thaw, nil
}
