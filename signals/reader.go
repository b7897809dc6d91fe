// Package signals reads the daily high-profile event flag written by an
// external detection job.
package signals

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"
)

// DefaultPath is where the detection job writes the flag file.
const DefaultPath = "signals/high_profile.json"

// DateLayout is the layout of the date_utc field.
const DateLayout = "2006-01-02"

// Signal is the flag state for the current UTC day. The zero value means
// "not flagged".
type Signal struct {
	Date    string
	Flagged bool
	Summary string
}

// HasSummary reports whether a non-empty summary accompanies the flag.
func (s Signal) HasSummary() bool { return s.Summary != "" }

// UnreadableError means the flag file could not be used. Callers degrade to
// "not flagged"; it is never fatal.
type UnreadableError struct {
	Path string
	Err  error
}

func (e *UnreadableError) Error() string {
	return fmt.Sprintf("signal file %s unreadable: %v", e.Path, e.Err)
}

func (e *UnreadableError) Unwrap() error {
	return e.Err
}

// document mirrors the file. Fields stay raw so a wrongly typed flag is
// treated as "not flagged" rather than a parse failure.
type document struct {
	DateUTC json.RawMessage `json:"date_utc"`
	Flag    json.RawMessage `json:"flag"`
	Summary json.RawMessage `json:"summary"`
}

// Reader reads a signal file relative to the current UTC day.
type Reader struct {
	Path   string
	Now    func() time.Time
	Logger *slog.Logger
}

// NewReader creates a Reader for path using the wall clock.
func NewReader(path string, logger *slog.Logger) *Reader {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{Path: path, Now: time.Now, Logger: logger}
}

// Read returns today's signal. It never fails: a missing, unreadable or
// malformed file yields the zero Signal.
func (r *Reader) Read() Signal {
	sig, err := r.Load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger().Debug("No signal file", "path", r.Path)
		} else {
			r.logger().Warn("Ignoring signal file", "path", r.Path, "error", err)
		}
		return Signal{}
	}
	return sig
}

// Load reads and interprets the signal file. Errors are *UnreadableError.
// A well-formed file that is stale or not flagged is not an error.
func (r *Reader) Load() (Signal, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return Signal{}, &UnreadableError{Path: r.Path, Err: err}
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Signal{}, &UnreadableError{Path: r.Path, Err: err}
	}

	today := r.now().UTC().Format(DateLayout)

	var date string
	if json.Unmarshal(doc.DateUTC, &date) != nil || date != today {
		return Signal{}, nil
	}

	var flag bool
	if json.Unmarshal(doc.Flag, &flag) != nil || !flag {
		return Signal{Date: date}, nil
	}

	var summary string
	if json.Unmarshal(doc.Summary, &summary) == nil {
		summary = strings.TrimSpace(summary)
	}

	return Signal{Date: date, Flagged: true, Summary: summary}, nil
}

func (r *Reader) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Reader) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
