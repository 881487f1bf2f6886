package converter

import (
	"fmt"
	"strings"
)

// The FF7 field text encoding maps bytes 0x00-0x5E to ASCII 0x20-0x7E.
// 0xFF terminates a string.
const (
	ff7TextEnd    = 0xFF
	ff7TextOffset = 0x20
	ff7TextMax    = 0x5E
)

// FF7TextToString decodes b up to the first terminator. Bytes outside the
// printable range are rendered as {XX}.
func FF7TextToString(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c == ff7TextEnd {
			break
		}
		if c <= ff7TextMax {
			sb.WriteByte(c + ff7TextOffset)
			continue
		}
		fmt.Fprintf(&sb, "{%02X}", c)
	}
	return sb.String()
}

// StringToFF7Text encodes printable ASCII and appends the terminator.
func StringToFF7Text(s string) ([]byte, error) {
	out := make([]byte, 0, len(s)+1)
	for i, r := range s {
		if r < ff7TextOffset || r > ff7TextOffset+ff7TextMax {
			return nil, fmt.Errorf("character %q at %d has no FF7 text encoding", r, i)
		}
		out = append(out, byte(r-ff7TextOffset))
	}
	return append(out, ff7TextEnd), nil
}
