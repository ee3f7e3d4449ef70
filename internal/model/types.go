// Package model defines shared data structures.
package model

import "time"

// Trace sources.
const (
	SourceRecorded  = "recorded"
	SourceGenerated = "generated"
	SourceImported  = "imported"
)

// Event is one key press inside a trace.
type Event struct {
	OffsetMs int64 `yaml:"offset_ms"`
	Row      int   `yaml:"row"`
	Col      int   `yaml:"col"`
}

// Offset returns the event time relative to the start of the trace.
func (e Event) Offset() time.Duration {
	return time.Duration(e.OffsetMs) * time.Millisecond
}

// Trace is a recorded or synthetic sequence of key presses.
type Trace struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Source    string    `yaml:"source"`
	CreatedAt time.Time `yaml:"created_at"`
	Events    []Event   `yaml:"events"`
}

// Duration returns the offset of the last event.
func (t Trace) Duration() time.Duration {
	if len(t.Events) == 0 {
		return 0
	}
	return t.Events[len(t.Events)-1].Offset()
}

// GenerateConfig defines synthetic trace settings.
type GenerateConfig struct {
	Name     string
	Words    int
	KPM      float64
	Jitter   float64
	PausePct float64
	Pause    time.Duration
	CapsPct  float64
	PunctPct float64
	PunctSet string
	Seed     int64
}

// ListConfig defines filters for trace listings.
type ListConfig struct {
	Source string
	Since  *time.Time
	Last   int
}

// TraceSummary describes a stored trace without its events.
type TraceSummary struct {
	ID         string
	Name       string
	Source     string
	CreatedAt  time.Time
	Keys       int
	DurationMs int64
}

// Duration returns the summary duration.
func (s TraceSummary) Duration() time.Duration {
	return time.Duration(s.DurationMs) * time.Millisecond
}
