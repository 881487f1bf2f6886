package memory

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Mapping is one line of /proc/<pid>/maps.
type Mapping struct {
	Start uint64
	End   uint64
	Perms string
	Path  string
}

func (m Mapping) Readable() bool { return m.Perms[0] == 'r' }

func (m Mapping) Writable() bool { return m.Perms[1] == 'w' }

func (m Mapping) Shared() bool { return m.Perms[3] == 's' }

func ReadMaps(mapsPath string) ([]Mapping, error) {
	file, err := os.OpenFile(mapsPath, os.O_RDONLY, 0600)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseMaps(file)
}

func ParseMaps(r io.Reader) ([]Mapping, error) {
	maps := []Mapping{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		meminfo := strings.Fields(line)
		if len(meminfo) == 0 {
			continue
		}
		if len(meminfo) < 5 || len(meminfo[1]) != 4 {
			return nil, fmt.Errorf("malformed maps line %q", line)
		}
		addrs := strings.Split(meminfo[0], "-")
		if len(addrs) != 2 {
			return nil, fmt.Errorf("malformed address range %q", meminfo[0])
		}
		beginAddr, err := strconv.ParseUint(addrs[0], 16, 64)
		if err != nil {
			return nil, err
		}
		endAddr, err := strconv.ParseUint(addrs[1], 16, 64)
		if err != nil {
			return nil, err
		}
		m := Mapping{Start: beginAddr, End: endAddr, Perms: meminfo[1]}
		if len(meminfo) >= 6 {
			// paths may contain spaces
			m.Path = strings.Join(meminfo[5:], " ")
		}
		maps = append(maps, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return maps, nil
}

// WritableRanges returns private writable mappings as [begin, end) pairs.
func WritableRanges(maps []Mapping) [][2]uint64 {
	addrRanges := [][2]uint64{}
	for _, m := range maps {
		if m.Readable() && m.Writable() && !m.Shared() {
			addrRanges = append(addrRanges, [2]uint64{m.Start, m.End})
		}
	}
	return addrRanges
}

// Within reports whether [addr, addr+n) lies inside contiguous ranges as
// returned by WritableRanges.
func Within(ranges [][2]uint64, addr uint64, n int) bool {
	cur, end := addr, addr+uint64(n)
	for _, r := range ranges {
		if r[1] <= cur {
			continue
		}
		if r[0] > cur {
			return false
		}
		cur = r[1]
		if cur >= end {
			return true
		}
	}
	return false
}

// Covers reports whether [addr, addr+n) lies entirely inside contiguous
// mappings that all satisfy ok. maps must be sorted by address, as the
// kernel emits them.
func Covers(maps []Mapping, addr uint64, n int, ok func(Mapping) bool) bool {
	cur, end := addr, addr+uint64(n)
	for _, m := range maps {
		if m.End <= cur {
			continue
		}
		if m.Start > cur || !ok(m) {
			return false
		}
		cur = m.End
		if cur >= end {
			return true
		}
	}
	return false
}
