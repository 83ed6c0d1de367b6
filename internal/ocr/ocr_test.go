package ocr

import (
	"context"
	"testing"

	"docenhance/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \n\n\f", ""},
		{"trailing spaces", "THE COLORED AMERICAN   \nVol. 1 \n", "THE COLORED AMERICAN\nVol. 1\n"},
		{"blank runs", "TRUTH\n\n\n\nstanza one\n\n\nstanza two\n\n", "TRUTH\n\nstanza one\n\nstanza two\n"},
		{"leading blanks", "\n\n  indented", "  indented\n"},
		{"form feed", "page one\fpage two", "page one\npage two\n"},
		{"crlf", "a\r\nb\r\n", "a\nb\n"},
		{"control chars", "ab\x00c\x07d", "abcd\n"},
		{"nfc", "cafe\u0301", "caf\u00e9\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())
	assert.Equal(t, PSM_AUTO, DefaultOptions().PSM)

	opts := DefaultOptions()
	opts.PSM = 14
	assert.Error(t, opts.Validate())

	opts = DefaultOptions()
	opts.DPI = -1
	assert.Error(t, opts.Validate())

	opts = DefaultOptions()
	opts.Languages = []string{"eng", " "}
	assert.Error(t, opts.Validate())
}

func TestCommandEngineArgs(t *testing.T) {
	e := NewCommandEngine(Options{Languages: []string{"eng", "deu"}, PSM: PSM_SINGLE_BLOCK, DPI: 300}, logger.Nop())
	assert.Equal(t, []string{"page_1.png", "stdout", "--psm", "6", "-l", "eng+deu", "--dpi", "300"}, e.args("page_1.png"))

	e = NewCommandEngine(Options{PSM: PSM_AUTO}, nil)
	assert.Equal(t, []string{"p.png", "stdout", "--psm", "3"}, e.args("p.png"))
}

func TestCommandEngineMissingBinary(t *testing.T) {
	e := NewCommandEngine(DefaultOptions(), logger.Nop())
	e.Binary = "docenhance-no-such-tesseract"

	_, err := e.Recognize(context.Background(), "page_1.png")
	assert.ErrorIs(t, err, ErrOCR)
}

func TestNewEngine(t *testing.T) {
	e, err := New("tesseract", DefaultOptions(), logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "tesseract", e.Name())

	e, err = New("", DefaultOptions(), logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "gosseract", e.Name())

	_, err = New("abbyy", DefaultOptions(), logger.Nop())
	assert.Error(t, err)

	_, err = New("tesseract", Options{PSM: 99}, logger.Nop())
	assert.Error(t, err)
}
