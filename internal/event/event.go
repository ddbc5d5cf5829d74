// Package event classifies decoded MIDI file events. A Kind is either a
// channel-voice status byte (channel nibble included or stripped) or a
// meta-event type byte; the two namespaces overlap numerically and are
// disambiguated by the Meta flag on the Event record, set by the reader.
package event

import "strconv"

// Kind discriminates MIDI events. For channel-voice messages the high nibble
// is the message kind and the low nibble the channel; meta-event type bytes
// occupy 0x00..0x7F.
type Kind byte

// Channel-voice status bytes (channel nibble zero).
const (
	NoteOff          Kind = 0x80
	NoteOn           Kind = 0x90
	KeyPressure      Kind = 0xA0
	ControlChange    Kind = 0xB0
	ProgramChange    Kind = 0xC0
	ChannelPressure  Kind = 0xD0
	PitchWheelChange Kind = 0xE0
)

// Meta-event type bytes.
const (
	SequenceNumber    Kind = 0x00
	TextEvent         Kind = 0x01
	Copyright         Kind = 0x02
	SequenceName      Kind = 0x03
	Instrument        Kind = 0x04
	Lyric             Kind = 0x05
	MarkerText        Kind = 0x06
	CuePoint          Kind = 0x07
	MIDIChannelPrefix Kind = 0x20
	EndOfTrack        Kind = 0x2F
	Tempo             Kind = 0x51
	SMPTEOffset       Kind = 0x54
	TimeSignature     Kind = 0x58
	KeySignature      Kind = 0x59
	SequencerSpecific Kind = 0x7F
)

// IsSystem reports whether k falls in the system-message range (high nibble
// 0xF). This check takes priority over the exact-match table in Name: a
// status byte 0xF0..0xFF is always a system message regardless of what the
// low nibble would mean as a meta-event type.
func (k Kind) IsSystem() bool {
	return k&0xF0 == 0xF0
}

// Name returns the display name for k. The system-message bitmask is checked
// before the exact-match table; unknown values fall through to a fixed
// fallback string. Meta-event names are only meaningful when the caller has
// already established (via Event.Meta) that k is a meta type byte.
func (k Kind) Name() string {
	if k.IsSystem() {
		return "System message"
	}
	switch k {
	case NoteOff:
		return "Note off"
	case NoteOn:
		return "Note on"
	case KeyPressure:
		return "Polyphonic key pressure"
	case ControlChange:
		return "Control change"
	case ProgramChange:
		return "Program change"
	case ChannelPressure:
		return "Channel pressure"
	case PitchWheelChange:
		return "Pitch wheel change"
	case SequenceNumber:
		return "Sequence number"
	case TextEvent:
		return "Text event"
	case Copyright:
		return "Copyright notice"
	case SequenceName:
		return "Sequence or track name"
	case Instrument:
		return "Instrument name"
	case Lyric:
		return "Lyric text"
	case MarkerText:
		return "Marker text"
	case CuePoint:
		return "Cue point"
	case MIDIChannelPrefix:
		return "MIDI channel prefix assignment"
	case EndOfTrack:
		return "End of track"
	case Tempo:
		return "Tempo setting"
	case SMPTEOffset:
		return "SMPTE offset"
	case TimeSignature:
		return "Time signature"
	case KeySignature:
		return "Key signature"
	case SequencerSpecific:
		return "Sequencer specific event"
	}
	return "Unknown event type"
}

// FixedLength returns the payload length implied by the event type, or -1
// when the length is not statically known and must come from the stream
// (Note On/Off and the variable-length text meta-events among others).
func (k Kind) FixedLength() int {
	switch k {
	case KeyPressure:
		return 2
	case ControlChange:
		return 2
	case ProgramChange:
		return 1
	case ChannelPressure:
		return 1
	case PitchWheelChange:
		return 2
	case SequenceNumber:
		return 2
	case MIDIChannelPrefix:
		return 1
	case EndOfTrack:
		return 0
	case Tempo:
		return 3
	case SMPTEOffset:
		return 5
	case TimeSignature:
		return 4
	case KeySignature:
		return 2
	}
	return -1
}

// Event is one decoded MIDI or meta event. The record is owned by the
// reader: constructed, classified, formatted and discarded. Only
// StripChannel mutates it.
type Event struct {
	// Type is the status byte for channel-voice events (channel nibble in
	// the low bits) or the meta-event type byte when Meta is set.
	Type Kind
	// Meta marks meta-events, which carry no channel semantics.
	Meta bool
	// Note and Velocity are meaningful only for Note On/Off.
	Note     uint8
	Velocity uint8
	// Tempo is microseconds per quarter note, meaningful only for Tempo
	// events.
	Tempo int
	// TotalTime and Delta are the absolute and inter-event tick counters,
	// maintained by the reader.
	TotalTime int
	Delta     int
}

// Name resolves the display name. Channel-voice events carry their channel
// in the low nibble of Type, so the nibble is masked off before the lookup;
// meta type bytes are looked up as-is.
func (e *Event) Name() string {
	if e.Meta {
		return e.Type.Name()
	}
	return (e.Type & 0xF0).Name()
}

// Channel returns the low nibble of the status byte. Only valid for
// channel-voice messages; callers check Meta first.
func (e *Event) Channel() int {
	return int(e.Type & 0x0F)
}

// StripChannel clears the channel nibble in place, normalizing the status
// byte to its bare message-kind code for grouping across channels.
func (e *Event) StripChannel() {
	e.Type &= 0xF0
}

var noteNames = [12]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// NoteName renders a MIDI note number as a pitch-class name (sharps, never
// flats) plus octave, where note 60 is C4 and note 0 is C-1. Defined for
// every byte value; out-of-range input yields a syntactically valid name.
func NoteName(note uint8) string {
	return noteNames[note%12] + strconv.Itoa(int(note)/12-1)
}
