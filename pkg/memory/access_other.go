//go:build !linux && !windows

package memory

import (
	"runtime"

	"github.com/aktsk/ff7-medit/pkg/errs"
)

func readAt(pid int, addr uint64, buf []byte) error {
	return errs.New(errs.KindAccessDenied, "read", "process memory access is not supported on %s", runtime.GOOS)
}

func writeAt(pid int, addr uint64, data []byte) error {
	return errs.New(errs.KindAccessDenied, "write", "process memory access is not supported on %s", runtime.GOOS)
}
