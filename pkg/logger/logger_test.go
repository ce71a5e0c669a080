package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestLogger_FieldsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "info", Output: &buf, Service: "test"})

	log.Debug("hidden")
	log.Info("document added", "document_id", "a", "count", 2)
	log.Error("persist failed", errors.New("disk full"), "key", "travel_documents")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "document added", entries[0]["message"])
	assert.Equal(t, "a", entries[0]["document_id"])
	assert.EqualValues(t, 2, entries[0]["count"])
	assert.Equal(t, "test", entries[0]["service"])

	assert.Equal(t, "error", entries[1]["level"])
	assert.Equal(t, "disk full", entries[1]["error"])
	assert.Equal(t, "travel_documents", entries[1]["key"])
}

func TestLogger_OddFieldsDropped(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "debug", Output: &buf})

	log.Warn("odd", "only-key")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	_, present := entries[0]["only-key"]
	assert.False(t, present)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLogLevel("DEBUG").String())
	assert.Equal(t, "warn", parseLogLevel("warning").String())
	assert.Equal(t, "error", parseLogLevel("error").String())
	assert.Equal(t, "info", parseLogLevel("bogus").String())
	assert.Equal(t, "info", parseLogLevel("").String())
}

func TestNew_LeavesGlobalTimeFormat(t *testing.T) {
	before := zerolog.TimeFieldFormat

	New(Options{Output: &bytes.Buffer{}})

	assert.Equal(t, before, zerolog.TimeFieldFormat)
}
