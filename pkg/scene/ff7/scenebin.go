package ff7

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/aktsk/ff7-medit/pkg/errs"
)

// scene.bin is a sequence of 8 KiB blocks. Each block starts with 16 u32
// pointers, in 4 byte words from the block start, to gzip members holding
// one scene each. 0xFFFFFFFF ends the pointer list; unused space is 0xFF.
const (
	BlockSize        = 0x2000
	pointersPerBlock = 16
	blockHeaderSize  = 4 * pointersPerBlock
	noPointer        = 0xFFFFFFFF
)

// Unpack returns the decompressed scenes in file order.
func Unpack(buf []byte) ([][]byte, error) {
	members := [][]byte{}
	for start := 0; start < len(buf); start += BlockSize {
		end := start + BlockSize
		if end > len(buf) {
			end = len(buf)
		}
		block := buf[start:end]
		if len(block) < blockHeaderSize {
			return nil, errs.New(errs.KindTruncatedFile, "unpack", "block at 0x%x has %d bytes, header needs %d", start, len(block), blockHeaderSize)
		}
		ptrs := []uint64{}
		for i := 0; i < pointersPerBlock; i++ {
			p := binary.LittleEndian.Uint32(block[4*i:])
			if p == noPointer {
				break
			}
			ptrs = append(ptrs, 4*uint64(p))
		}
		for i, from := range ptrs {
			to := uint64(len(block))
			if i+1 < len(ptrs) {
				to = ptrs[i+1]
			}
			switch {
			case from < blockHeaderSize:
				return nil, errs.New(errs.KindMalformedRecord, "unpack", "block at 0x%x: pointer %d points into the header", start, i)
			case from >= uint64(len(block)), to > uint64(len(block)):
				return nil, errs.New(errs.KindTruncatedFile, "unpack", "block at 0x%x: scene %d runs past the end of the file", start, i)
			case from >= to:
				return nil, errs.New(errs.KindMalformedRecord, "unpack", "block at 0x%x: pointers %d and %d are out of order", start, i, i+1)
			}
			members = append(members, block[from:to])
		}
	}

	scenes := make([][]byte, len(members))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, m := range members {
		i, m := i, m
		g.Go(func() error {
			b, err := inflate(m)
			if err != nil {
				return fmt.Errorf("scene %d: %w", i, err)
			}
			scenes[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scenes, nil
}

func inflate(member []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(member))
	if err != nil {
		return nil, gzipError(err)
	}
	defer zr.Close()
	// the member is followed by padding or the next block's data
	zr.Multistream(false)

	b, err := io.ReadAll(io.LimitReader(zr, SceneSize+1))
	if err != nil {
		return nil, gzipError(err)
	}
	if len(b) != SceneSize {
		return nil, errs.New(errs.KindMalformedRecord, "unpack", "scene inflates to %d bytes, expected %d", len(b), SceneSize)
	}
	return b, nil
}

func gzipError(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return errs.Wrap(errs.KindTruncatedFile, "unpack", err)
	}
	return errs.Wrap(errs.KindMalformedRecord, "unpack", err)
}

// Pack is the inverse of Unpack. The compressed output differs from the
// original game files, but Unpack(Pack(s)) returns s.
func Pack(scenes [][]byte) ([]byte, error) {
	var out bytes.Buffer
	ptrs := []uint32{}
	var data bytes.Buffer

	flush := func() {
		block := bytes.Repeat([]byte{0xFF}, BlockSize)
		for i, p := range ptrs {
			binary.LittleEndian.PutUint32(block[4*i:], p)
		}
		copy(block[blockHeaderSize:], data.Bytes())
		out.Write(block)
		ptrs = ptrs[:0]
		data.Reset()
	}

	for i, s := range scenes {
		if len(s) != SceneSize {
			return nil, errs.New(errs.KindMalformedRecord, "pack", "scene %d is %d bytes, expected %d", i, len(s), SceneSize)
		}
		z, err := deflate(s)
		if err != nil {
			return nil, errs.Wrap(errs.KindIoError, fmt.Sprintf("pack scene %d", i), err)
		}
		if blockHeaderSize+len(z) > BlockSize {
			return nil, errs.New(errs.KindMalformedRecord, "pack", "scene %d compresses to %d bytes, more than a block", i, len(z))
		}
		if len(ptrs) == pointersPerBlock || blockHeaderSize+data.Len()+len(z) > BlockSize {
			flush()
		}
		ptrs = append(ptrs, uint32((blockHeaderSize+data.Len())/4))
		data.Write(z)
	}
	if len(ptrs) > 0 {
		flush()
	}
	return out.Bytes(), nil
}

// deflate compresses s into one gzip member padded to a word boundary.
func deflate(s []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(s); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	for buf.Len()%4 != 0 {
		buf.WriteByte(0xFF)
	}
	return buf.Bytes(), nil
}
