// Package stats aggregates per-file statistics over a decoded SMF file.
package stats

import (
	"miditrace/internal/event"
	"miditrace/internal/smf"
	"miditrace/pkg/types"
)

// Stats holds running totals for one file.
type Stats struct {
	// EventCounts is keyed by display name, so unknown types aggregate
	// under the fallback name.
	EventCounts map[string]int
	// NoteCounts has one slot per MIDI note number.
	NoteCounts [128]uint64
	// Channels marks each channel that carried a channel-voice event.
	Channels [16]bool
	// TempoChanges counts tempo meta-events across all tracks.
	TempoChanges int
	// NotesStruck counts note-on events with nonzero velocity. A note-on
	// at velocity zero releases a note and is not counted.
	NotesStruck int
	// TotalTicks is the longest track length.
	TotalTicks int
}

// Collect walks every decoded event of f and accumulates totals.
func Collect(f *smf.File) *Stats {
	s := &Stats{EventCounts: make(map[string]int)}
	for i := range f.Tracks {
		t := &f.Tracks[i]
		if t.Ticks > s.TotalTicks {
			s.TotalTicks = t.Ticks
		}
		for j := range t.Events {
			ev := &t.Events[j].Event
			s.EventCounts[ev.Name()]++
			if ev.Meta {
				if ev.Type == event.Tempo {
					s.TempoChanges++
				}
				continue
			}
			if ev.Type.IsSystem() {
				continue
			}
			s.Channels[ev.Channel()] = true
			if ev.Type&0xF0 == event.NoteOn && ev.Velocity > 0 {
				s.NoteCounts[ev.Note&0x7F]++
				s.NotesStruck++
			}
		}
	}
	return s
}

// Response converts the totals to the HTTP API payload.
func (s *Stats) Response() types.StatsResponse {
	resp := types.StatsResponse{
		EventCounts:  make(map[string]int, len(s.EventCounts)),
		TempoChanges: s.TempoChanges,
		NotesStruck:  s.NotesStruck,
		TotalTicks:   s.TotalTicks,
	}
	for name, n := range s.EventCounts {
		resp.EventCounts[name] = n
	}
	for ch, seen := range s.Channels {
		if seen {
			resp.ChannelsSeen = append(resp.ChannelsSeen, ch)
		}
	}
	for note, n := range s.NoteCounts {
		if n > 0 {
			resp.NotesSeen = append(resp.NotesSeen, event.NoteName(uint8(note)))
		}
	}
	return resp
}
