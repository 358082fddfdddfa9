package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "short", tp.TruncateText("short", 100))
	assert.Equal(t, "unlimited", tp.TruncateText("unlimited", 0))
	assert.Equal(t, "abcde", tp.TruncateText("abcdefgh", 5))

	// Truncation never leaves a broken multi-byte sequence.
	in := strings.Repeat("é", 10)
	out := tp.TruncateText(in, 5)
	assert.True(t, utf8.ValidString(out))
	assert.LessOrEqual(t, len(out), 5)
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "clean text", tp.SanitizeUTF8("clean text"))

	dirty := "ok\xff\xfealso ok"
	out := tp.SanitizeUTF8(dirty)
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "also ok")
}

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	out := tp.ProcessText("hello\xffworld padding", 11)
	assert.True(t, utf8.ValidString(out))
	assert.LessOrEqual(t, len(out), 11)
}
