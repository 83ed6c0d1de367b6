package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
		err  bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"loud", zerolog.InfoLevel, true},
	}

	for _, x := range tests {
		t.Run(x.in, func(t *testing.T) {
			got, err := ParseLevel(x.in)
			if x.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, x.want, got)
		})
	}
}

func TestZerologAdapterFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.DebugLevel).With("run_id", "abc")

	log.Error("Saver", errors.New("disk full"), map[string]interface{}{"path": "out/clahe.png"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "Saver", entry["component"])
	assert.Equal(t, "disk full", entry["error"])
	assert.Equal(t, "out/clahe.png", entry["path"])
	assert.Equal(t, "abc", entry["run_id"])
}

func TestZerologAdapterLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.WarnLevel)

	log.Debug("Loader", "hidden", nil)
	log.Info("Loader", "hidden", nil)
	assert.Zero(t, buf.Len())

	log.Warning("Loader", "shown", nil)
	assert.Contains(t, buf.String(), "shown")
}
