/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest provides a log.FieldLogger that records entries for inspection in tests.
package logtest

import (
	"sync"
	"time"

	"github.com/ssgreg/logf"

	"github.com/dexkit/go-dexscreener/log"
)

// RecordedEntry is a logged entry with the fields of the logger (set by With) followed by its own fields.
type RecordedEntry struct {
	LoggerName string
	Fields     []log.Field
	Level      log.Level
	Time       time.Time
	Text       string
}

// FindField returns the first field with the given key.
func (re *RecordedEntry) FindField(key string) (*log.Field, bool) {
	for i := range re.Fields {
		if re.Fields[i].Key == key {
			return &re.Fields[i], true
		}
	}
	return nil, false
}

// FieldString returns the value of a string field or an empty string if there is no such field.
func (re *RecordedEntry) FieldString(key string) string {
	if f, ok := re.FindField(key); ok {
		return string(f.Bytes)
	}
	return ""
}

var levelsFromLogf = map[logf.Level]log.Level{
	logf.LevelError: log.LevelError,
	logf.LevelWarn:  log.LevelWarn,
	logf.LevelInfo:  log.LevelInfo,
	logf.LevelDebug: log.LevelDebug,
}

// journal is shared by a Recorder and all loggers derived from it.
type journal struct {
	mu      sync.RWMutex
	entries []RecordedEntry
}

//nolint:gocritic // logf.EntryWriter passes the entry by value
func (j *journal) WriteEntry(e logf.Entry) {
	entry := RecordedEntry{
		LoggerName: e.LoggerName,
		Fields:     append(append(make([]log.Field, 0, len(e.DerivedFields)+len(e.Fields)), e.DerivedFields...), e.Fields...),
		Level:      levelsFromLogf[e.Level],
		Time:       e.Time,
		Text:       e.Text,
	}
	j.mu.Lock()
	j.entries = append(j.entries, entry)
	j.mu.Unlock()
}

func (j *journal) filter(match func(*RecordedEntry) bool) []RecordedEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var res []RecordedEntry
	for i := range j.entries {
		if match(&j.entries[i]) {
			res = append(res, j.entries[i])
		}
	}
	return res
}

// Recorder is a log.FieldLogger that keeps every entry of every level in memory.
// Loggers derived with With and WithLevel write to the same journal.
type Recorder struct {
	*log.LogfAdapter
	journal *journal
}

// NewRecorder returns an initialized Recorder.
func NewRecorder() *Recorder {
	j := &journal{}
	return &Recorder{&log.LogfAdapter{Logger: logf.NewLogger(logf.LevelDebug, j)}, j}
}

// With returns a derived Recorder with the given additional fields.
func (r *Recorder) With(fs ...log.Field) log.FieldLogger {
	return &Recorder{r.LogfAdapter.With(fs...).(*log.LogfAdapter), r.journal}
}

// WithLevel returns a derived Recorder with the given additional level check.
func (r *Recorder) WithLevel(level log.Level) log.FieldLogger {
	return &Recorder{r.LogfAdapter.WithLevel(level).(*log.LogfAdapter), r.journal}
}

// Entries returns all recorded entries.
func (r *Recorder) Entries() []RecordedEntry {
	return r.journal.filter(func(*RecordedEntry) bool { return true })
}

// FindEntry returns the first recorded entry with the given message.
func (r *Recorder) FindEntry(msg string) (RecordedEntry, bool) {
	if entries := r.FindAllEntries(msg); len(entries) != 0 {
		return entries[0], true
	}
	return RecordedEntry{}, false
}

// FindAllEntries returns all recorded entries with the given message.
func (r *Recorder) FindAllEntries(msg string) []RecordedEntry {
	return r.journal.filter(func(e *RecordedEntry) bool { return e.Text == msg })
}

// Reset drops all recorded entries.
func (r *Recorder) Reset() {
	r.journal.mu.Lock()
	r.journal.entries = nil
	r.journal.mu.Unlock()
}
