//go:build linux

package memory

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"

	"golang.org/x/sys/unix"

	"github.com/aktsk/ff7-medit/pkg/errs"
)

func readAt(pid int, addr uint64, buf []byte) error {
	if addr > math.MaxInt64-uint64(len(buf)) {
		return errs.New(errs.KindAccessDenied, "read", "0x%x is outside the user address space", addr)
	}
	maps, err := ReadMaps(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return classify("read", err)
	}
	if !Covers(maps, addr, len(buf), Mapping.Readable) {
		return errs.New(errs.KindAccessDenied, "read", "%s is not mapped readable", Region{addr, len(buf)})
	}

	memFile, err := os.OpenFile(fmt.Sprintf("/proc/%d/mem", pid), os.O_RDONLY, 0600)
	if err != nil {
		return classify("read", err)
	}
	defer memFile.Close()

	return readFull(memFile, addr, buf)
}

func writeAt(pid int, addr uint64, data []byte) error {
	if addr > math.MaxInt64-uint64(len(data)) {
		return errs.New(errs.KindAccessDenied, "write", "0x%x is outside the user address space", addr)
	}
	// The kernel lets /proc/<pid>/mem write through read-only pages, so
	// page permissions are enforced here.
	maps, err := ReadMaps(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return classify("write", err)
	}
	if !Within(WritableRanges(maps), addr, len(data)) {
		return errs.New(errs.KindWriteRejected, "write", "%s is not mapped private writable", Region{addr, len(data)})
	}

	memFile, err := os.OpenFile(fmt.Sprintf("/proc/%d/mem", pid), os.O_WRONLY, 0600)
	if err != nil {
		return classify("write", err)
	}
	defer memFile.Close()

	return writeFull(memFile, addr, data)
}

// readFull fills buf from addr. Anything short of len(buf) bytes is a
// PartialRead unless nothing was read because of an errno.
func readFull(memFile io.ReaderAt, addr uint64, buf []byte) error {
	n, err := readMemory(memFile, buf, int64(addr))
	if n == len(buf) {
		return nil
	}
	if n > 0 || err == nil || errors.Is(err, io.EOF) {
		return errs.New(errs.KindPartialRead, "read", "got %d of %d bytes at 0x%x", n, len(buf), addr)
	}
	return classify("read", err)
}

func writeFull(memFile io.WriterAt, addr uint64, data []byte) error {
	n, err := writeMemory(memFile, int64(addr), data)
	if n == len(data) {
		return nil
	}
	if n > 0 || err == nil {
		return errs.New(errs.KindWriteRejected, "write", "wrote %d of %d bytes at 0x%x", n, len(data), addr)
	}
	if errors.Is(err, unix.EIO) || errors.Is(err, unix.EFAULT) {
		return errs.Wrap(errs.KindWriteRejected, "write", err)
	}
	return classify("write", err)
}

func readMemory(memFile io.ReaderAt, buffer []byte, beginAddr int64) (int, error) {
	r := io.NewSectionReader(memFile, beginAddr, int64(len(buffer)))
	return io.ReadFull(r, buffer)
}

func writeMemory(memFile io.WriterAt, targetAddr int64, targetVal []byte) (int, error) {
	return memFile.WriteAt(targetVal, targetAddr)
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, unix.ESRCH):
		return errs.Wrap(errs.KindProcessGone, op, err)
	case errors.Is(err, fs.ErrPermission), errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM),
		errors.Is(err, unix.EIO), errors.Is(err, unix.EFAULT):
		return errs.Wrap(errs.KindAccessDenied, op, err)
	}
	return errs.Wrap(errs.KindIoError, op, err)
}
