package smf

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"miditrace/internal/event"
)

func header(format, ntracks, division uint16) []byte {
	b := []byte("MThd")
	b = append(b, 0, 0, 0, 6)
	b = binary.BigEndian.AppendUint16(b, format)
	b = binary.BigEndian.AppendUint16(b, ntracks)
	b = binary.BigEndian.AppendUint16(b, division)
	return b
}

func track(events []byte) []byte {
	b := []byte("MTrk")
	b = binary.BigEndian.AppendUint32(b, uint32(len(events)))
	return append(b, events...)
}

func TestParseSingleTrack(t *testing.T) {
	events := []byte{
		0x00, 0x90, 0x3C, 0x64, // note on C4, velocity 100
		0x83, 0x60, 0x80, 0x3C, 0x00, // delta 480, note off
		0x00, 0x40, 0x00, // running status: another note off
		0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20, // tempo 500000
		0x00, 0xFF, 0x2F, 0x00, // end of track
	}
	data := append(header(0, 1, 480), track(events)...)

	f, err := Parse(data, zerolog.Nop())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Format != SingleTrack || f.NumTracks != 1 || f.Division != 480 {
		t.Fatalf("header: %+v", f)
	}
	if f.TicksPerQuarterNote() != 480 {
		t.Fatalf("ticks per quarter note = %d", f.TicksPerQuarterNote())
	}
	if len(f.Tracks) != 1 {
		t.Fatalf("tracks = %d", len(f.Tracks))
	}
	evs := f.Tracks[0].Events
	if len(evs) != 5 {
		t.Fatalf("events = %d", len(evs))
	}

	on := evs[0].Event
	if on.Type != 0x90 || on.Meta || on.Note != 60 || on.Velocity != 100 {
		t.Fatalf("note on: %+v", on)
	}
	if on.Delta != 0 || on.TotalTime != 0 {
		t.Fatalf("note on timing: %+v", on)
	}

	off := evs[1].Event
	if off.Type != 0x80 || off.Note != 60 || off.Velocity != 0 {
		t.Fatalf("note off: %+v", off)
	}
	if off.Delta != 480 || off.TotalTime != 480 {
		t.Fatalf("note off timing: %+v", off)
	}

	running := evs[2].Event
	if running.Type != 0x80 || running.Note != 0x40 {
		t.Fatalf("running-status event: %+v", running)
	}

	tempo := evs[3].Event
	if !tempo.Meta || tempo.Type != event.Tempo || tempo.Tempo != 500000 {
		t.Fatalf("tempo: %+v", tempo)
	}

	eot := evs[4].Event
	if !eot.Meta || eot.Type != event.EndOfTrack {
		t.Fatalf("end of track: %+v", eot)
	}
	if f.Tracks[0].Ticks != 480 {
		t.Fatalf("track ticks = %d", f.Tracks[0].Ticks)
	}
}

func TestParseEventWindows(t *testing.T) {
	events := []byte{
		0x00, 0x90, 0x3C, 0x64,
		0x00, 0xFF, 0x2F, 0x00,
	}
	data := append(header(0, 1, 96), track(events)...)
	f, err := Parse(data, zerolog.Nop())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	evs := f.Tracks[0].Events
	// Track data starts after the 14-byte header and 8-byte chunk header;
	// each window starts past the delta byte.
	first := evs[0]
	if first.Offset != 23 || first.Length != 3 {
		t.Fatalf("first window: offset=%d length=%d", first.Offset, first.Length)
	}
	if got := f.Data()[first.Offset]; got != 0x90 {
		t.Fatalf("window start byte = 0x%02x", got)
	}
	second := evs[1]
	if second.Offset != 27 || second.Length != 3 {
		t.Fatalf("second window: offset=%d length=%d", second.Offset, second.Length)
	}
}

func TestParseHeaderErrors(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"bad identifier", append([]byte("Mxhd"), header(0, 1, 96)[4:]...), "wrong identifier for header chunk"},
		{"bad length", []byte("MThd\x00\x00\x00\x07\x00\x00\x00\x01\x00\x60"), "wrong header chunk length"},
		{"bad format", header(3, 1, 96), "invalid file format"},
		{"no tracks", header(0, 0, 96), "at least one track"},
		{"zero division", header(0, 1, 0), "division cannot be zero"},
		{"truncated", []byte("MTh"), "file ended unexpectedly"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse(c.data, zerolog.Nop())
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Fatalf("err = %v, want substring %q", err, c.want)
			}
		})
	}
}

func TestParseTrackErrors(t *testing.T) {
	t.Run("bad chunk identifier", func(t *testing.T) {
		data := append(header(0, 1, 96), []byte("MTxk\x00\x00\x00\x00")...)
		_, err := Parse(data, zerolog.Nop())
		if err == nil || !strings.Contains(err.Error(), "wrong identifier for track chunk") {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("chunk runs past end", func(t *testing.T) {
		data := append(header(0, 1, 96), []byte("MTrk\x00\x00\x00\xFF")...)
		_, err := Parse(data, zerolog.Nop())
		if err == nil || !strings.Contains(err.Error(), "runs past end of file") {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("data byte without running status", func(t *testing.T) {
		data := append(header(0, 1, 96), track([]byte{0x00, 0x3C, 0x64})...)
		_, err := Parse(data, zerolog.Nop())
		if err == nil || !strings.Contains(err.Error(), "without a running status") {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("oversized VLQ", func(t *testing.T) {
		data := append(header(0, 1, 96), track([]byte{0x80, 0x80, 0x80, 0x80, 0x80})...)
		_, err := Parse(data, zerolog.Nop())
		if err == nil || !strings.Contains(err.Error(), "variable-length quantity") {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestSysexSkipped(t *testing.T) {
	events := []byte{
		0x00, 0xF0, 0x03, 0x01, 0x02, 0xF7, // sysex, 3 payload bytes
		0x00, 0xFF, 0x2F, 0x00,
	}
	data := append(header(0, 1, 96), track(events)...)
	f, err := Parse(data, zerolog.Nop())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	evs := f.Tracks[0].Events
	if len(evs) != 2 {
		t.Fatalf("events = %d", len(evs))
	}
	if name := evs[0].Event.Name(); name != "System message" {
		t.Fatalf("sysex name = %q", name)
	}
}

func TestTrackLookup(t *testing.T) {
	data := append(header(0, 1, 96), track([]byte{0x00, 0xFF, 0x2F, 0x00})...)
	f, err := Parse(data, zerolog.Nop())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := f.Track(0); err != nil {
		t.Fatalf("Track(0): %v", err)
	}
	_, err = f.Track(3)
	if err == nil || !IsTrackNotFound(err) {
		t.Fatalf("Track(3) err = %v, want not-found", err)
	}
	if IsTrackNotFound(nil) {
		t.Fatal("IsTrackNotFound(nil) must be false")
	}
}

func TestMultiTrack(t *testing.T) {
	tr := track([]byte{0x00, 0xC0, 0x05, 0x00, 0xFF, 0x2F, 0x00})
	data := append(header(1, 2, 96), tr...)
	data = append(data, tr...)
	f, err := Parse(data, zerolog.Nop())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Tracks) != 2 {
		t.Fatalf("tracks = %d", len(f.Tracks))
	}
	pc := f.Tracks[1].Events[0].Event
	if pc.Type != 0xC0 || pc.Meta {
		t.Fatalf("program change: %+v", pc)
	}
}
