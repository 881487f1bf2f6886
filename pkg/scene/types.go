package scene

// File is a decoded file. Header and Trailer keep the bytes around the
// records so Encode can reproduce the input exactly.
type File struct {
	Header  []byte  `json:"header"`
	Scenes  []Scene `json:"scenes"`
	Trailer []byte  `json:"trailer,omitempty"`
}

// Scene is one decoded record. All byte slices are owned copies.
type Scene struct {
	Index int `json:"index"`
	// Offset is the file offset of the record start.
	Offset int `json:"offset"`
	// Raw covers the whole record extent, blocks included.
	Raw    []byte  `json:"raw"`
	Fields []Field `json:"fields"`
	Blocks []Block `json:"blocks"`
}

type Field struct {
	Name  string `json:"name"`
	Value uint32 `json:"value"`
}

type Block struct {
	Name string `json:"name"`
	// Slot is the table entry index for table blocks, 0 otherwise.
	Slot int `json:"slot"`
	// Offset is relative to the record start.
	Offset int    `json:"offset"`
	Data   []byte `json:"data"`
}

func (s *Scene) Field(name string) (uint32, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

// Block returns the block called name in the given slot.
func (s *Scene) Block(name string, slot int) (Block, bool) {
	for _, b := range s.Blocks {
		if b.Name == name && b.Slot == slot {
			return b, true
		}
	}
	return Block{}, false
}
