package main

import (
	"encoding/binary"
	"testing"

	"github.com/rs/zerolog"

	"miditrace/internal/smf"
)

func parseTestFile(t *testing.T) *smf.File {
	t.Helper()
	events := []byte{
		0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20, // tempo 500000
		0x00, 0x90, 0x3C, 0x64, // note on C4
		0x83, 0x60, 0x80, 0x3C, 0x00, // note off, delta 480
		0x00, 0xFF, 0x2F, 0x00,
	}
	data := []byte("MThd")
	data = append(data, 0, 0, 0, 6)
	data = binary.BigEndian.AppendUint16(data, 0)
	data = binary.BigEndian.AppendUint16(data, 1)
	data = binary.BigEndian.AppendUint16(data, 480)
	data = append(data, []byte("MTrk")...)
	data = binary.BigEndian.AppendUint32(data, uint32(len(events)))
	data = append(data, events...)

	f, err := smf.Parse(data, zerolog.Nop())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}

func TestFileServiceHeader(t *testing.T) {
	svc := newFileService(parseTestFile(t))
	h := svc.Header()
	if h.Format != 0 || h.FormatName != "single track" {
		t.Fatalf("header format: %+v", h)
	}
	if h.TrackCount != 1 || h.Division != 480 || h.TicksPerQuarterNote != 480 {
		t.Fatalf("header: %+v", h)
	}
}

func TestFileServiceTracks(t *testing.T) {
	svc := newFileService(parseTestFile(t))
	tracks := svc.Tracks()
	if len(tracks) != 1 {
		t.Fatalf("tracks len=%d", len(tracks))
	}
	if tracks[0].Index != 0 || tracks[0].EventCount != 4 || tracks[0].Ticks != 480 {
		t.Fatalf("track info: %+v", tracks[0])
	}
}

func TestFileServiceTrackEvents(t *testing.T) {
	svc := newFileService(parseTestFile(t))
	records, err := svc.TrackEvents(0)
	if err != nil {
		t.Fatalf("TrackEvents: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("records len=%d", len(records))
	}

	tempo := records[0]
	if tempo.Name != "Tempo setting" || !tempo.Meta || tempo.Tempo != 500000 || tempo.Channel != nil {
		t.Fatalf("tempo record: %+v", tempo)
	}

	on := records[1]
	if on.Name != "Note on" || on.Note != "C4" || on.Velocity != 100 {
		t.Fatalf("note on record: %+v", on)
	}
	if on.Channel == nil || *on.Channel != 0 {
		t.Fatalf("note on channel: %+v", on.Channel)
	}
	if on.Offset != "0x001e" {
		t.Fatalf("note on offset: %q", on.Offset)
	}

	off := records[2]
	if off.Name != "Note off" || off.TotalTime != 480 || off.Delta != 480 {
		t.Fatalf("note off record: %+v", off)
	}
}

func TestFileServiceTrackEventsOutOfRange(t *testing.T) {
	svc := newFileService(parseTestFile(t))
	if _, err := svc.TrackEvents(5); !smf.IsTrackNotFound(err) {
		t.Fatalf("err = %v, want track not found", err)
	}
}

func TestFileServiceStats(t *testing.T) {
	svc := newFileService(parseTestFile(t))
	st := svc.Stats()
	if st.NotesStruck != 1 || st.TempoChanges != 1 || st.TotalTicks != 480 {
		t.Fatalf("stats: %+v", st)
	}
	if st.EventCounts["Note on"] != 1 || st.EventCounts["Note off"] != 1 {
		t.Fatalf("event counts: %+v", st.EventCounts)
	}
}

func TestFileServiceReady(t *testing.T) {
	if !newFileService(parseTestFile(t)).Ready() {
		t.Fatal("loaded file should be ready")
	}
}
