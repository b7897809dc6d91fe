package signals

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 16, 6, 30, 0, 0, time.UTC)

func writeSignal(t *testing.T, content string) *Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "high_profile.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	r := NewReader(path, nil)
	r.Now = func() time.Time { return fixedNow }
	return r
}

func TestReader_Read(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantFlagged bool
		wantSummary string
	}{
		{
			name:        "flagged today with summary",
			content:     `{"date_utc": "2026-10-16", "flag": true, "summary": "  Summit collapses without a statement.  "}`,
			wantFlagged: true,
			wantSummary: "Summit collapses without a statement.",
		},
		{
			name:        "flagged today without summary",
			content:     `{"date_utc": "2026-10-16", "flag": true}`,
			wantFlagged: true,
		},
		{
			name:        "blank summary is absent",
			content:     `{"date_utc": "2026-10-16", "flag": true, "summary": "   "}`,
			wantFlagged: true,
		},
		{
			name:        "non-string summary is absent",
			content:     `{"date_utc": "2026-10-16", "flag": true, "summary": 42}`,
			wantFlagged: true,
		},
		{
			name:    "yesterday is stale",
			content: `{"date_utc": "2026-10-15", "flag": true, "summary": "old news"}`,
		},
		{
			name:    "flag false",
			content: `{"date_utc": "2026-10-16", "flag": false, "summary": "ignored"}`,
		},
		{
			name:    "flag as string",
			content: `{"date_utc": "2026-10-16", "flag": "true"}`,
		},
		{
			name:    "flag as number",
			content: `{"date_utc": "2026-10-16", "flag": 1}`,
		},
		{
			name:    "flag null",
			content: `{"date_utc": "2026-10-16", "flag": null}`,
		},
		{
			name:    "flag missing",
			content: `{"date_utc": "2026-10-16"}`,
		},
		{
			name:    "date wrong type",
			content: `{"date_utc": 20261016, "flag": true}`,
		},
		{
			name:    "date in another format",
			content: `{"date_utc": "16/10/2026", "flag": true}`,
		},
		{
			name:    "malformed json",
			content: `{"date_utc": "2026-10-16", "flag": tr`,
		},
		{
			name:    "not an object",
			content: `[true]`,
		},
		{
			name:    "empty file",
			content: ``,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := writeSignal(t, tt.content)
			sig := r.Read()
			assert.Equal(t, tt.wantFlagged, sig.Flagged)
			assert.Equal(t, tt.wantSummary, sig.Summary)
			if !tt.wantFlagged {
				assert.False(t, sig.HasSummary())
			}
		})
	}
}

func TestReader_MissingFile(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "nope.json"), nil)

	assert.Equal(t, Signal{}, r.Read())

	_, err := r.Load()
	var unreadable *UnreadableError
	require.True(t, errors.As(err, &unreadable))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "nope.json")
}

func TestReader_MalformedIsUnreadable(t *testing.T) {
	r := writeSignal(t, `{not json`)
	_, err := r.Load()
	var unreadable *UnreadableError
	assert.True(t, errors.As(err, &unreadable))
}

func TestReader_UsesUTCDay(t *testing.T) {
	// 23:30 on the 15th in UTC-5 is already the 16th in UTC.
	r := writeSignal(t, `{"date_utc": "2026-10-16", "flag": true}`)
	r.Now = func() time.Time {
		return time.Date(2026, 10, 15, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	}
	assert.True(t, r.Read().Flagged)
}

func TestNewReader_DefaultPath(t *testing.T) {
	r := NewReader("", nil)
	assert.Equal(t, DefaultPath, r.Path)
	assert.NotNil(t, r.Logger)
}
