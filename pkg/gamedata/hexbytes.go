package gamedata

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HexBytes serializes as a hex string in JSON. It also accepts an array
// of byte values on input.
type HexBytes []byte

func (b HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(b))
}

func (b *HexBytes) UnmarshalJSON(j []byte) (err error) {
	if bytes.HasPrefix(bytes.TrimSpace(j), []byte("[")) {
		var vals []int
		if err = json.Unmarshal(j, &vals); err != nil {
			return
		}
		out := make([]byte, len(vals))
		for i, v := range vals {
			if v < 0 || v > 0xFF {
				return fmt.Errorf("byte %d out of range: %d", i, v)
			}
			out[i] = byte(v)
		}
		*b = out
		return nil
	}
	var s string
	err = json.Unmarshal(j, &s)
	if err != nil {
		return
	}
	*b, err = hex.DecodeString(s)
	return
}

func (b HexBytes) String() string { return hex.EncodeToString(b) }
