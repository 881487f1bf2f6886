package addrtable

// Definition is the serialized form of a table.
type Definition struct {
	Build     string  `yaml:"build"`
	ImageBase uint64  `yaml:"image_base"`
	Entries   []Entry `yaml:"entries"`
}

const ff7ImageBase = 0x400000

// Offsets are relative to the ff7_en.exe image, which is not relocated.
var builtin = map[string]Definition{
	"ff7_en-steam": {
		Build:     "ff7_en-steam",
		ImageBase: ff7ImageBase,
		Entries: []Entry{
			{Name: "game_module", Offset: 0x8BF9DC, Size: 2, Kind: Scalar, Relative: true},
			{Name: "field_id", Offset: 0x8C15D0, Size: 2, Kind: Scalar, Relative: true},
			{Name: "battle_id", Offset: 0x8C0E24, Size: 2, Kind: Scalar, Relative: true},
			{Name: "world_x", Offset: 0xA045E4, Size: 4, Kind: Scalar, Relative: true},
			{Name: "world_z", Offset: 0xA045E8, Size: 4, Kind: Scalar, Relative: true},
			{Name: "world_y", Offset: 0xA045EC, Size: 4, Kind: Scalar, Relative: true},
			{Name: "gil", Offset: 0x9C08B4, Size: 4, Kind: Scalar, Relative: true},
			{Name: "party_members", Offset: 0x9C0230, Size: 3, Kind: Buffer, Relative: true},
			{Name: "savemap", Offset: 0x9BFD38, Size: 0x10F4, Kind: Struct, Relative: true},
			{Name: "world_mes_data", Offset: 0xA2D000, Size: 0x1000, Kind: Buffer, Relative: true},
		},
	},
}
