//go:build linux

package memory

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/aktsk/ff7-medit/pkg/errs"
)

// freeze ptrace-attaches every thread of pid. The tracer is the calling OS
// thread, so the goroutine stays locked to it until thaw runs. Threads
// created after the task list was read are not stopped.
func freeze(pid int, log *zap.Logger) (func() error, error) {
	tidInfo, err := os.ReadDir(fmt.Sprintf("/proc/%d/task", pid))
	if err != nil {
		return nil, classify("freeze", err)
	}

	runtime.LockOSThread()
	tids := []int{}
	detach := func() error {
		var result error
		for _, tid := range tids {
			if err := unix.PtraceDetach(tid); err != nil && !errors.Is(err, unix.ESRCH) {
				result = errors.Join(result, fmt.Errorf("detach %d: %w", tid, err))
			}
		}
		runtime.UnlockOSThread()
		return result
	}

	for _, t := range tidInfo {
		tid, err := strconv.Atoi(t.Name())
		if err != nil {
			continue
		}
		if err := unix.PtraceAttach(tid); err != nil {
			if errors.Is(err, unix.ESRCH) {
				// thread exited while we were walking the list
				continue
			}
			_ = detach()
			return nil, classify("freeze", err)
		}
		tids = append(tids, tid)
		if err := wait(tid); err != nil {
			log.Debug("wait for stop failed", zap.Int("tid", tid), zap.Error(err))
			_ = detach()
			return nil, errs.Wrap(errs.KindAccessDenied, "freeze", err)
		}
	}
	return detach, nil
}

func wait(tid int) error {
	var s unix.WaitStatus
	wpid, err := unix.Wait4(tid, &s, unix.WALL, nil)
	if err != nil {
		return err
	}
	if wpid != tid {
		return fmt.Errorf("wait failed: wpid = %d", wpid)
	}
	if !s.Stopped() {
		return fmt.Errorf("wait failed: tid %d is not stopped", tid)
	}
	return nil
}
