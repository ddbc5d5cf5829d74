// Package trace renders fixed-width, pipe-delimited diagnostic rows for
// decoded MIDI events and hands them to the logger at debug level.
package trace

import (
	"strconv"

	"github.com/rs/zerolog"

	"miditrace/internal/event"
	"miditrace/internal/hexutil"
)

// Column widths of the trace layout. The hex dump column is the only one
// with a hard width; the others are append-padded and may push the
// separators out when content overflows.
const (
	offsetWidth  = 6
	hexDumpWidth = 39
	timeWidth    = 6
	deltaWidth   = 6
	nameWidth    = 25
	channelWidth = 10
	noteWidth    = 9
	tempoWidth   = 6
)

// Formatter renders trace rows. The zero value is not usable; construct
// with New so rows reach a configured logger.
type Formatter struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Formatter {
	return &Formatter{log: log}
}

// Trace formats one event row and emits it at debug severity. The
// formatter never writes to any other level; filtering and color are the
// logger's business.
func (f *Formatter) Trace(ev *event.Event, offset int, data []byte, length int) {
	f.log.Debug().Msg(f.Row(ev, offset, data, length))
}

// Row builds the diagnostic line for ev, dumping length raw bytes of data
// starting at offset. Columns: hex offset, hex dump, absolute time, delta,
// event name, channel (blank for meta-events), then a type-specific
// trailing field for notes and tempo changes.
func (f *Formatter) Row(ev *event.Event, offset int, data []byte, length int) string {
	row := pad(hexutil.Offset(offset), offsetWidth)
	row += " | "
	row += pad(elide(hexDump(data, offset, length)), hexDumpWidth)
	row += "| "
	row += pad(strconv.Itoa(ev.TotalTime), timeWidth)
	row += " | "
	row += pad(strconv.Itoa(ev.Delta), deltaWidth)
	row += " | "
	row += pad(ev.Name(), nameWidth)
	row += " | "
	if ev.Meta {
		row += "          "
	} else {
		row += pad("Channel "+strconv.Itoa(ev.Channel()), channelWidth)
	}
	row += " | "
	switch {
	case ev.Type&0xF0 == event.NoteOn || ev.Type&0xF0 == event.NoteOff:
		row += pad("Note "+event.NoteName(ev.Note), noteWidth)
		row += "at velocity " + strconv.Itoa(int(ev.Velocity))
	case ev.Type == event.Tempo:
		row += pad(strconv.Itoa(ev.Tempo), tempoWidth)
		row += " us per quarter note"
	}
	return row
}

// hexDump renders the window [offset, offset+length) of data as space
// separated two-digit hex bytes. Reads are bounded to the window and to
// the slice itself.
func hexDump(data []byte, offset, length int) string {
	var s string
	for i := 0; i < length; i++ {
		if offset+i < 0 || offset+i >= len(data) {
			break
		}
		s += hexutil.Byte(data[offset+i])
		s += " "
	}
	return s
}

// elide keeps long hex dumps inside the 39-character column by replacing a
// middle slice with a marker: the slice starts at index 27 and is
// len(s)-34 characters long, leaving a fixed lead-in and tail. The index
// arithmetic is deliberate; the bounds guards only reject slices the
// arithmetic itself cannot express.
func elide(s string) string {
	if len(s) <= hexDumpWidth {
		return s
	}
	n := len(s) - 34
	if n <= 0 || 27+n > len(s) {
		return s
	}
	return s[:27] + "[...]" + s[27+n:]
}

// pad appends single spaces until s reaches width. It never truncates;
// content that must fit a hard width is truncated before padding.
func pad(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}
