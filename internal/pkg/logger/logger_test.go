package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	SetLevel(DEBUG)
	SetRedactPII(true)
	t.Cleanup(func() {
		SetOutput(prev)
		SetLevel(INFO)
		SetRedactPII(true)
	})
	return &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]string {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestLog_Fields(t *testing.T) {
	buf := capture(t)
	Info("application created", "id", "abc", "count", 3)

	entry := lastEntry(t, buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "application created", entry["msg"])
	assert.Equal(t, "abc", entry["id"])
	assert.Equal(t, "3", entry["count"])
	assert.NotEmpty(t, entry["time"])
}

func TestLog_LevelFilter(t *testing.T) {
	buf := capture(t)
	SetLevel(WARN)

	Info("hidden")
	Debug("hidden")
	assert.Empty(t, buf.String())

	Error("shown")
	assert.Equal(t, "ERROR", lastEntry(t, buf)["level"])
}

func TestLog_RedactsEmail(t *testing.T) {
	buf := capture(t)
	Info("contact", "contact_email", "recruiter@acme.example", "error", "bad value jane.doe@corp.example")

	entry := lastEntry(t, buf)
	assert.Equal(t, "re***@acme.example", entry["contact_email"])
	assert.Equal(t, "bad value ja***@corp.example", entry["error"])

	SetRedactPII(false)
	Info("contact", "contact_email", "recruiter@acme.example")
	assert.Equal(t, "recruiter@acme.example", lastEntry(t, buf)["contact_email"])
}

func TestLog_OddFields(t *testing.T) {
	buf := capture(t)
	Warn("odd", "key")
	assert.Equal(t, "key", lastEntry(t, buf)["!BADKEY"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"":        INFO,
		"warning": WARN,
		" Warn ":  WARN,
		"error":   ERROR,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
	assert.Equal(t, "***@***", RedactEmail("trailing@"))
	assert.Equal(t, "***@***", RedactEmail("two words@acme.io"))
	assert.Equal(t, "jö***@acme.io", RedactEmail("jörg@acme.io"))
	assert.Equal(t, "a@***@host.io", RedactEmail("a@b@host.io"))
	assert.Equal(t, "", RedactEmail("  "))
}
