package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, encoding Encoding, level string) (*logger, *bytes.Buffer) {
	t.Helper()
	l := New(encoding, level).(*logger)
	buf := &bytes.Buffer{}
	l.out = buf
	return l, buf
}

func TestJSONEncoding(t *testing.T) {
	l, buf := newTestLogger(t, EncodingJSON, "info")
	l.Info("hello", "route", "/a")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, "/a", entry["route"])
	assert.Equal(t, "info", entry["level"])
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newTestLogger(t, EncodingJSON, "warn")
	l.Info("skip me")
	assert.Empty(t, buf.String())

	l.Warn("keep me")
	assert.Contains(t, buf.String(), "keep me")
}

func TestWithFields(t *testing.T) {
	l, buf := newTestLogger(t, EncodingJSON, "info")
	scoped := l.With("route", "/x").(*logger)
	scoped.out = buf
	scoped.Info("msg")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "/x", entry["route"])
}

func TestErrorIncludesErrField(t *testing.T) {
	l, buf := newTestLogger(t, EncodingJSON, "info")
	l.Error("boom", assertError{"bad"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "bad", entry["error"])
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
