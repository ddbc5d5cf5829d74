// Package smf decodes Standard MIDI Files: the MThd header, MTrk chunks,
// variable-length quantities and the event stream, populating event.Event
// records together with the byte window each one occupies. Rendering the
// records is the trace package's job; this package only reads.
package smf

import (
	"fmt"

	"github.com/rs/zerolog"

	"miditrace/internal/event"
)

// Format is the file format word of the MThd chunk.
type Format uint16

const (
	SingleTrack Format = 0
	MultiTrack  Format = 1
	MultiSong   Format = 2
)

func (f Format) String() string {
	switch f {
	case SingleTrack:
		return "single track"
	case MultiTrack:
		return "multiple track"
	case MultiSong:
		return "multiple song"
	}
	return fmt.Sprintf("unknown (%d)", uint16(f))
}

// DecodedEvent pairs an event record with the raw-byte window it was
// decoded from: Offset is the first byte after the delta-time, Length runs
// through the end of the event's payload. The window feeds the hex dump.
type DecodedEvent struct {
	Event  event.Event
	Offset int
	Length int
}

// Track holds the decoded events of one MTrk chunk.
type Track struct {
	Events []DecodedEvent
	// Ticks is the absolute time of the last event.
	Ticks int
}

// File is a fully decoded SMF file. The raw bytes are retained so trace
// rows can dump each event's window.
type File struct {
	Format    Format
	NumTracks uint16
	// Division is positive for ticks-per-quarter-note timing and negative
	// for SMPTE timing. Never zero in a valid file.
	Division int16
	Tracks   []Track

	data []byte
}

// Data returns the raw file bytes backing the decoded events.
func (f *File) Data() []byte { return f.data }

// TicksPerQuarterNote returns the division as ticks per quarter note, or 0
// when the file uses SMPTE timing.
func (f *File) TicksPerQuarterNote() int {
	if f.Division > 0 {
		return int(f.Division)
	}
	return 0
}

// Track returns the i'th track or a typed not-found error.
func (f *File) Track(i int) (*Track, error) {
	if i < 0 || i >= len(f.Tracks) {
		return nil, trackNotFoundError{index: i}
	}
	return &f.Tracks[i], nil
}

// parser walks the raw buffer. All reads are bounds-checked; running off
// the end is reported as truncation rather than a panic.
type parser struct {
	data []byte
	pos  int
}

func (p *parser) readByte() (byte, error) {
	if p.pos >= len(p.data) {
		return 0, fmt.Errorf("file ended unexpectedly at offset %d", p.pos)
	}
	b := p.data[p.pos]
	p.pos++
	return b, nil
}

func (p *parser) readString(n int) (string, error) {
	if p.pos+n > len(p.data) {
		return "", fmt.Errorf("file ended unexpectedly at offset %d", p.pos)
	}
	s := string(p.data[p.pos : p.pos+n])
	p.pos += n
	return s, nil
}

func (p *parser) readWord() (uint16, error) {
	hi, err := p.readByte()
	if err != nil {
		return 0, err
	}
	lo, err := p.readByte()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

func (p *parser) readDword() (uint32, error) {
	var v uint32
	for i := 0; i < 4; i++ {
		b, err := p.readByte()
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint32(b)
	}
	return v, nil
}

// readVLQ reads a MIDI variable-length quantity. At most four bytes; the
// continuation bit must clear before then.
func (p *parser) readVLQ() (int, error) {
	var v uint32
	for i := 0; i < 4; i++ {
		b, err := p.readByte()
		if err != nil {
			return 0, fmt.Errorf("reading variable-length quantity: %w", err)
		}
		v = v<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return int(v), nil
		}
	}
	return 0, fmt.Errorf("variable-length quantity exceeds four bytes at offset %d", p.pos)
}

// Parse decodes an SMF file from raw bytes. Header and track structure
// notes go to log at debug level; malformed input is an error, not a
// panic.
func Parse(data []byte, log zerolog.Logger) (*File, error) {
	p := &parser{data: data}
	f := &File{data: data}

	if err := parseHeader(p, f, log); err != nil {
		return nil, err
	}
	for i := 0; i < int(f.NumTracks); i++ {
		t, err := parseTrack(p, log)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		f.Tracks = append(f.Tracks, *t)
	}
	return f, nil
}

func parseHeader(p *parser, f *File, log zerolog.Logger) error {
	id, err := p.readString(4)
	if err != nil {
		return err
	}
	if id != "MThd" {
		return fmt.Errorf("wrong identifier for header chunk: expected %q but got %q", "MThd", id)
	}
	length, err := p.readDword()
	if err != nil {
		return err
	}
	if length != 6 {
		return fmt.Errorf("wrong header chunk length: expected 6 but got %d", length)
	}
	format, err := p.readWord()
	if err != nil {
		return err
	}
	if format > 2 {
		return fmt.Errorf("invalid file format: %d", format)
	}
	f.Format = Format(format)
	log.Debug().Stringer("format", f.Format).Msg("file format")

	f.NumTracks, err = p.readWord()
	if err != nil {
		return err
	}
	if f.NumTracks == 0 {
		return fmt.Errorf("MIDI file must have at least one track chunk")
	}
	division, err := p.readWord()
	if err != nil {
		return err
	}
	f.Division = int16(division)
	switch {
	case f.Division > 0:
		log.Debug().Int("ticks_per_beat", int(f.Division)).Msg("division given in ticks per beat")
	case f.Division < 0:
		log.Debug().Msg("division given in SMPTE format")
	default:
		return fmt.Errorf("division cannot be zero")
	}
	return nil
}

func parseTrack(p *parser, log zerolog.Logger) (*Track, error) {
	id, err := p.readString(4)
	if err != nil {
		return nil, err
	}
	if id != "MTrk" {
		return nil, fmt.Errorf("wrong identifier for track chunk: expected %q but got %q", "MTrk", id)
	}
	length, err := p.readDword()
	if err != nil {
		return nil, err
	}
	end := p.pos + int(length)
	if end > len(p.data) {
		return nil, fmt.Errorf("track chunk length %d runs past end of file", length)
	}

	t := &Track{}
	totalTime := 0
	var runningStatus byte
	for p.pos < end {
		delta, err := p.readVLQ()
		if err != nil {
			return nil, err
		}
		totalTime += delta

		offset := p.pos
		ev, err := parseEvent(p, &runningStatus)
		if err != nil {
			return nil, err
		}
		ev.Delta = delta
		ev.TotalTime = totalTime
		t.Events = append(t.Events, DecodedEvent{
			Event:  *ev,
			Offset: offset,
			Length: p.pos - offset,
		})
		if ev.Meta && ev.Type == event.EndOfTrack {
			// End of track may legally arrive before the chunk length is
			// exhausted; skip whatever padding remains.
			p.pos = end
			break
		}
	}
	t.Ticks = totalTime
	log.Debug().Int("events", len(t.Events)).Int("ticks", t.Ticks).Msg("track decoded")
	return t, nil
}

// parseEvent decodes one event starting at the status byte (or at the
// first data byte under running status) and returns the populated record.
func parseEvent(p *parser, runningStatus *byte) (*event.Event, error) {
	b, err := p.readByte()
	if err != nil {
		return nil, err
	}

	// Meta event: 0xFF, type byte, VLQ length, payload.
	if b == 0xFF {
		*runningStatus = 0
		metaType, err := p.readByte()
		if err != nil {
			return nil, fmt.Errorf("reading meta-event type: %w", err)
		}
		length, err := p.readVLQ()
		if err != nil {
			return nil, fmt.Errorf("reading meta-event length: %w", err)
		}
		if p.pos+length > len(p.data) {
			return nil, fmt.Errorf("meta-event payload of %d bytes runs past end of file", length)
		}
		payload := p.data[p.pos : p.pos+length]
		p.pos += length

		ev := &event.Event{Type: event.Kind(metaType), Meta: true}
		if want := ev.Type.FixedLength(); want >= 0 && want != length {
			return nil, fmt.Errorf("%s: expected %d payload bytes but got %d", ev.Type.Name(), want, length)
		}
		if ev.Type == event.Tempo {
			ev.Tempo = int(payload[0])<<16 | int(payload[1])<<8 | int(payload[2])
		}
		return ev, nil
	}

	// System exclusive: VLQ length, payload skipped. Resets running status.
	if b == 0xF0 || b == 0xF7 {
		*runningStatus = 0
		length, err := p.readVLQ()
		if err != nil {
			return nil, fmt.Errorf("reading sysex length: %w", err)
		}
		if p.pos+length > len(p.data) {
			return nil, fmt.Errorf("sysex payload of %d bytes runs past end of file", length)
		}
		p.pos += length
		return &event.Event{Type: event.Kind(b)}, nil
	}

	// Other system messages carry no payload we understand; classify and
	// move on.
	if b&0xF0 == 0xF0 {
		return &event.Event{Type: event.Kind(b)}, nil
	}

	// Channel-voice message, possibly under running status.
	status := b
	if status&0x80 == 0 {
		if *runningStatus == 0 {
			return nil, fmt.Errorf("data byte 0x%02x without a running status", b)
		}
		status = *runningStatus
		p.pos-- // b was the first data byte
	} else {
		*runningStatus = status
	}

	ev := &event.Event{Type: event.Kind(status)}
	kind := event.Kind(status & 0xF0)
	switch kind {
	case event.NoteOn, event.NoteOff:
		note, err := p.readByte()
		if err != nil {
			return nil, fmt.Errorf("reading note: %w", err)
		}
		velocity, err := p.readByte()
		if err != nil {
			return nil, fmt.Errorf("reading velocity: %w", err)
		}
		ev.Note = note
		ev.Velocity = velocity
	default:
		n := kind.FixedLength()
		if n < 0 {
			return nil, fmt.Errorf("channel message 0x%02x has no known length", status)
		}
		for i := 0; i < n; i++ {
			if _, err := p.readByte(); err != nil {
				return nil, fmt.Errorf("reading %s payload: %w", kind.Name(), err)
			}
		}
	}
	return ev, nil
}
