// Package addrtable maps logical game fields to memory offsets for a given
// game build. Tables are immutable once built and safe for concurrent use.
package addrtable

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aktsk/ff7-medit/pkg/errs"
)

type Kind uint8

const (
	Scalar Kind = iota
	Buffer
	Struct
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Buffer:
		return "buffer"
	case Struct:
		return "struct"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "scalar":
		*k = Scalar
	case "buffer":
		*k = Buffer
	case "struct":
		*k = Struct
	default:
		return fmt.Errorf("unknown field kind %q", string(b))
	}
	return nil
}

// Entry describes one field. Relative entries are offsets from the
// executable image base; absolute entries are virtual addresses.
type Entry struct {
	Name     string `json:"name" yaml:"name"`
	Offset   uint64 `json:"offset" yaml:"offset"`
	Size     int    `json:"size" yaml:"size"`
	Kind     Kind   `json:"kind" yaml:"kind"`
	Relative bool   `json:"relative" yaml:"relative"`
}

type Table struct {
	build     string
	imageBase uint64
	entries   []Entry
	index     map[string]int
}

// New returns the built-in table for build. Unknown builds fail with
// UnsupportedBuild; there is no fallback table.
func New(build string) (*Table, error) {
	def, ok := builtin[build]
	if !ok {
		return nil, errs.New(errs.KindUnsupportedBuild, "addrtable", "%q (known: %s)", build, strings.Join(Builds(), ", "))
	}
	return fromDefinition(def)
}

// Builds lists the built-in build identifiers in sorted order.
func Builds() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func fromDefinition(def Definition) (*Table, error) {
	if err := def.validate(); err != nil {
		return nil, err
	}
	t := &Table{
		build:     def.Build,
		imageBase: def.ImageBase,
		entries:   make([]Entry, len(def.Entries)),
		index:     make(map[string]int, len(def.Entries)),
	}
	copy(t.entries, def.Entries)
	for i, e := range t.entries {
		t.index[e.Name] = i
	}
	return t, nil
}

func (t *Table) Build() string { return t.build }

func (t *Table) ImageBase() uint64 { return t.imageBase }

func (t *Table) Len() int { return len(t.entries) }

func (t *Table) Lookup(name string) (Entry, error) {
	i, ok := t.index[name]
	if !ok {
		return Entry{}, errs.New(errs.KindUnknownField, "lookup", "%q not in table %s", name, t.build)
	}
	return t.entries[i], nil
}

// Entries returns a copy of all entries in table order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Address resolves e to an absolute virtual address.
func (t *Table) Address(e Entry) uint64 {
	if e.Relative {
		return t.imageBase + e.Offset
	}
	return e.Offset
}

func (d Definition) validate() error {
	if d.Build == "" {
		return errs.New(errs.KindUnsupportedBuild, "addrtable", "empty build identifier")
	}
	seen := make(map[string]bool, len(d.Entries))
	for i, e := range d.Entries {
		if e.Name == "" {
			return errs.New(errs.KindUnsupportedBuild, "addrtable", "%s: entry %d has no name", d.Build, i)
		}
		if seen[e.Name] {
			return errs.New(errs.KindUnsupportedBuild, "addrtable", "%s: duplicate entry %q", d.Build, e.Name)
		}
		seen[e.Name] = true
		if e.Size <= 0 {
			return errs.New(errs.KindUnsupportedBuild, "addrtable", "%s: entry %q has size %d", d.Build, e.Name, e.Size)
		}
		if e.Kind > Struct {
			return errs.New(errs.KindUnsupportedBuild, "addrtable", "%s: entry %q has %s", d.Build, e.Name, e.Kind)
		}
		if e.Kind == Scalar {
			switch e.Size {
			case 1, 2, 4, 8:
			default:
				return errs.New(errs.KindUnsupportedBuild, "addrtable", "%s: scalar %q must be 1, 2, 4 or 8 bytes, got %d", d.Build, e.Name, e.Size)
			}
		}
		base := e.Offset
		if e.Relative {
			if d.ImageBase > math.MaxUint64-e.Offset {
				return errs.New(errs.KindUnsupportedBuild, "addrtable", "%s: entry %q overflows the address space", d.Build, e.Name)
			}
			base += d.ImageBase
		}
		if base > math.MaxUint64-uint64(e.Size) {
			return errs.New(errs.KindUnsupportedBuild, "addrtable", "%s: entry %q overflows the address space", d.Build, e.Name)
		}
	}
	return nil
}
