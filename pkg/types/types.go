// Package types holds the JSON payloads served by the HTTP inspection API.
package types

// HeaderInfo describes the MThd chunk of the loaded file.
type HeaderInfo struct {
	// SMF format word: 0, 1 or 2.
	// example: 1
	Format int `json:"format" example:"1"`
	// Human-readable format name.
	// example: multiple track
	FormatName string `json:"format_name" example:"multiple track"`
	// Number of track chunks.
	// example: 2
	TrackCount int `json:"track_count" example:"2"`
	// Raw division word; positive = ticks per quarter note, negative = SMPTE.
	// example: 480
	Division int `json:"division" example:"480"`
	// Ticks per quarter note, 0 when the file uses SMPTE timing.
	// example: 480
	TicksPerQuarterNote int `json:"ticks_per_quarter_note,omitempty" example:"480"`
}

// TrackInfo summarizes one track chunk.
type TrackInfo struct {
	// Track index within the file.
	// example: 0
	Index int `json:"index" example:"0"`
	// Number of decoded events.
	// example: 128
	EventCount int `json:"event_count" example:"128"`
	// Absolute tick time of the last event.
	// example: 7680
	Ticks int `json:"ticks" example:"7680"`
}

// EventRecord is one decoded event as served by /tracks/{index}/events.
type EventRecord struct {
	// Byte offset of the event in the file, 0x-prefixed hex.
	// example: 0x0010
	Offset string `json:"offset" example:"0x0010"`
	// Display name of the event type.
	// example: Note on
	Name string `json:"name" example:"Note on"`
	// True for meta-events, which carry no channel.
	Meta bool `json:"meta"`
	// Channel number, omitted for meta and system events.
	// example: 0
	Channel *int `json:"channel,omitempty" example:"0"`
	// Absolute tick time.
	// example: 480
	TotalTime int `json:"total_time" example:"480"`
	// Ticks since the previous event.
	// example: 480
	Delta int `json:"delta" example:"480"`
	// Note name, only for Note On/Off.
	// example: C4
	Note string `json:"note,omitempty" example:"C4"`
	// Velocity, only for Note On/Off.
	// example: 100
	Velocity int `json:"velocity,omitempty" example:"100"`
	// Microseconds per quarter note, only for tempo events.
	// example: 500000
	Tempo int `json:"tempo,omitempty" example:"500000"`
}

// StatsResponse aggregates per-file statistics for /stats.
type StatsResponse struct {
	// Event counts keyed by display name.
	EventCounts map[string]int `json:"event_counts"`
	// Channels that carried at least one channel-voice event.
	ChannelsSeen []int `json:"channels_seen"`
	// Number of tempo changes across all tracks.
	// example: 1
	TempoChanges int `json:"tempo_changes" example:"1"`
	// Distinct notes struck, by note name.
	NotesSeen []string `json:"notes_seen"`
	// Total note-on events with nonzero velocity.
	// example: 64
	NotesStruck int `json:"notes_struck" example:"64"`
	// Longest track length in ticks.
	// example: 7680
	TotalTicks int `json:"total_ticks" example:"7680"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: track 7 not found
	Error string `json:"error" example:"track 7 not found"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}
