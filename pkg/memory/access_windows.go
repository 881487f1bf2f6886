//go:build windows

package memory

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/aktsk/ff7-medit/pkg/errs"
)

const writableProtect = windows.PAGE_READWRITE | windows.PAGE_WRITECOPY |
	windows.PAGE_EXECUTE_READWRITE | windows.PAGE_EXECUTE_WRITECOPY

func readAt(pid int, addr uint64, buf []byte) error {
	h, err := windows.OpenProcess(windows.PROCESS_VM_READ|windows.PROCESS_QUERY_INFORMATION, false, uint32(pid))
	if err != nil {
		return classify("read", err)
	}
	defer windows.CloseHandle(h)

	var n uintptr
	err = windows.ReadProcessMemory(h, uintptr(addr), &buf[0], uintptr(len(buf)), &n)
	if int(n) == len(buf) && err == nil {
		return nil
	}
	if n > 0 || errors.Is(err, windows.ERROR_PARTIAL_COPY) {
		return errs.New(errs.KindPartialRead, "read", "got %d of %d bytes at 0x%x", n, len(buf), addr)
	}
	return classify("read", err)
}

func writeAt(pid int, addr uint64, data []byte) error {
	access := uint32(windows.PROCESS_VM_WRITE | windows.PROCESS_VM_OPERATION | windows.PROCESS_QUERY_INFORMATION)
	h, err := windows.OpenProcess(access, false, uint32(pid))
	if err != nil {
		return classify("write", err)
	}
	defer windows.CloseHandle(h)

	if err := checkWritable(h, uintptr(addr), uintptr(len(data))); err != nil {
		return err
	}

	var n uintptr
	err = windows.WriteProcessMemory(h, uintptr(addr), &data[0], uintptr(len(data)), &n)
	if int(n) == len(data) && err == nil {
		return nil
	}
	if n > 0 || errors.Is(err, windows.ERROR_PARTIAL_COPY) || errors.Is(err, windows.ERROR_NOACCESS) {
		return errs.New(errs.KindWriteRejected, "write", "wrote %d of %d bytes at 0x%x", n, len(data), addr)
	}
	return classify("write", err)
}

// checkWritable walks every page region overlapping [addr, addr+n).
func checkWritable(h windows.Handle, addr, n uintptr) error {
	end := addr + n
	for cur := addr; cur < end; {
		var mbi windows.MemoryBasicInformation
		if err := windows.VirtualQueryEx(h, cur, &mbi, unsafe.Sizeof(mbi)); err != nil {
			return classify("write", err)
		}
		if mbi.State != windows.MEM_COMMIT || mbi.Protect&windows.PAGE_GUARD != 0 || mbi.Protect&writableProtect == 0 {
			return errs.New(errs.KindWriteRejected, "write", "page at 0x%x is not writable (protect 0x%x)", cur, mbi.Protect)
		}
		cur = mbi.BaseAddress + mbi.RegionSize
	}
	return nil
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, windows.ERROR_INVALID_PARAMETER):
		// OpenProcess reports an exited pid as an invalid parameter.
		return errs.Wrap(errs.KindProcessGone, op, err)
	case errors.Is(err, windows.ERROR_ACCESS_DENIED), errors.Is(err, windows.ERROR_NOACCESS):
		return errs.Wrap(errs.KindAccessDenied, op, err)
	}
	return errs.Wrap(errs.KindIoError, op, err)
}
