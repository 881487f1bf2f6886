// Package process finds the running game and tracks whether a previously
// found instance is still the same live process.
package process

import (
	"sort"
	"strings"

	ps "github.com/mitchellh/go-ps"
	"go.uber.org/zap"

	"github.com/aktsk/ff7-medit/pkg/errs"
)

// DefaultNames are the executables of the supported PC releases.
var DefaultNames = []string{"ff7_en.exe", "ff7.exe"}

// Linux truncates /proc/<pid>/stat comm to TASK_COMM_LEN-1 bytes.
const commLen = 15

type Locator struct {
	names []string
	list  func() ([]ps.Process, error)
	find  func(int) (ps.Process, error)
	start func(int) (uint64, error)
	log   *zap.Logger
}

type Option func(*Locator)

func WithProcessLister(fn func() ([]ps.Process, error)) Option {
	return func(l *Locator) { l.list = fn }
}

func WithProcessFinder(fn func(int) (ps.Process, error)) Option {
	return func(l *Locator) { l.find = fn }
}

func WithStartTime(fn func(int) (uint64, error)) Option {
	return func(l *Locator) { l.start = fn }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Locator) { l.log = log }
}

func NewLocator(names []string, opts ...Option) *Locator {
	if len(names) == 0 {
		names = DefaultNames
	}
	l := &Locator{
		names: append([]string(nil), names...),
		list:  ps.Processes,
		find:  ps.FindProcess,
		start: startTime,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Matches reports whether exe is one of the target executables.
func (l *Locator) Matches(exe string) bool {
	for _, name := range l.names {
		if strings.EqualFold(exe, name) {
			return true
		}
		if len(exe) == commLen && len(name) > commLen && strings.EqualFold(exe, name[:commLen]) {
			return true
		}
	}
	return false
}

// Find returns the live target process with the lowest PID.
func (l *Locator) Find() (*Handle, error) {
	procs, err := l.list()
	if err != nil {
		return nil, errs.Wrap(errs.KindIoError, "find", err)
	}
	sort.Slice(procs, func(i, j int) bool { return procs[i].Pid() < procs[j].Pid() })
	for _, p := range procs {
		if !l.Matches(p.Executable()) {
			continue
		}
		h := l.handle(p)
		if l.IsAlive(h) {
			l.log.Debug("found target process", zap.Int("pid", h.pid), zap.String("name", h.name))
			return h, nil
		}
	}
	return nil, errs.New(errs.KindProcessNotFound, "find", "none of %s is running", strings.Join(l.names, ", "))
}

// Attach returns a handle for an explicit pid after checking that it runs
// one of the target executables.
func (l *Locator) Attach(pid int) (*Handle, error) {
	p, err := l.find(pid)
	if err != nil || p == nil {
		return nil, errs.New(errs.KindProcessNotFound, "attach", "pid %d does not exist", pid)
	}
	if !l.Matches(p.Executable()) {
		return nil, errs.New(errs.KindProcessNotFound, "attach", "pid %d runs %q", pid, p.Executable())
	}
	return l.handle(p), nil
}

// IsAlive never fails; a stale or nil handle is simply not alive.
func (l *Locator) IsAlive(h *Handle) bool {
	if h == nil {
		return false
	}
	p, err := l.find(h.pid)
	if err != nil || p == nil {
		return false
	}
	if !l.Matches(p.Executable()) {
		return false
	}
	if h.start == 0 {
		return true
	}
	start, err := l.start(h.pid)
	if err != nil || start == 0 {
		return true
	}
	return start == h.start
}

func (l *Locator) handle(p ps.Process) *Handle {
	start, err := l.start(p.Pid())
	if err != nil {
		l.log.Debug("process start time unavailable", zap.Int("pid", p.Pid()), zap.Error(err))
		start = 0
	}
	return &Handle{pid: p.Pid(), name: p.Executable(), start: start}
}
