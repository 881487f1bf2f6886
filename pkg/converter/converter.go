// Package converter turns user input into the little-endian byte
// representations written to game memory, and back.
package converter

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// UTF8 string
func StringToBytes(arg string) ([]byte, error) {
	rs := []rune(arg)
	return []byte(string(rs)), nil
}

func ByteToBytes(arg string) ([]byte, error) {
	targetVal, err := parseUint(arg, 8)
	if err != nil {
		return nil, err
	}
	return []byte{byte(targetVal)}, nil
}

func WordToBytes(arg string) ([]byte, error) {
	searchBytes := make([]byte, 2)
	targetVal, err := parseUint(arg, 16)
	if err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint16(searchBytes[0:], uint16(targetVal))
	return searchBytes, nil
}

func DwordToBytes(arg string) ([]byte, error) {
	searchBytes := make([]byte, 4)
	targetVal, err := parseUint(arg, 32)
	if err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint32(searchBytes[0:], uint32(targetVal))
	return searchBytes, nil
}

func QwordToBytes(arg string) ([]byte, error) {
	searchBytes := make([]byte, 8)
	targetVal, err := parseUint(arg, 64)
	if err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint64(searchBytes[0:], targetVal)
	return searchBytes, nil
}

// ScalarToBytes encodes arg in size bytes (1, 2, 4 or 8).
func ScalarToBytes(arg string, size int) ([]byte, error) {
	switch size {
	case 1:
		return ByteToBytes(arg)
	case 2:
		return WordToBytes(arg)
	case 4:
		return DwordToBytes(arg)
	case 8:
		return QwordToBytes(arg)
	}
	return nil, fmt.Errorf("unsupported scalar size %d", size)
}

// BytesToScalar decodes up to 8 little-endian bytes.
func BytesToScalar(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// HexToBytes accepts "de ad be ef", "deadbeef" or "0xdeadbeef".
func HexToBytes(arg string) ([]byte, error) {
	s := strings.Join(strings.Fields(arg), "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}

// Accepts decimal, 0x hex, 0o octal and 0b binary.
func parseUint(arg string, bitSize int) (uint64, error) {
	return strconv.ParseUint(strings.ReplaceAll(strings.TrimSpace(arg), "_", ""), 0, bitSize)
}
