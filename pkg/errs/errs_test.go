package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := New(KindProcessGone, "read", "pid %d", 42)
	assert.True(t, errors.Is(err, ErrProcessGone))
	assert.False(t, errors.Is(err, ErrAccessDenied))

	wrapped := fmt.Errorf("snapshot: %w", err)
	assert.True(t, errors.Is(wrapped, ErrProcessGone))
	assert.Equal(t, KindProcessGone, KindOf(wrapped))
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(io.EOF))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestErrorMessage(t *testing.T) {
	err := Wrap(KindIoError, "decode-scene-file", io.ErrUnexpectedEOF)
	assert.Equal(t, "decode-scene-file: IoError: unexpected EOF", err.Error())
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	err = New(KindUnknownField, "lookup", "%q", "nope")
	assert.Equal(t, `lookup: UnknownField: "nope"`, err.Error())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "OutOfBounds", KindOutOfBounds.String())
	assert.Equal(t, "Kind(200)", Kind(200).String())
}
