// Package player replays the channel-voice events of a decoded file to a
// MIDI output port, pacing deltas with the file's division and tempo map.
package player

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register MIDI driver

	"miditrace/internal/event"
	"miditrace/internal/smf"
)

// timedEvent is one playable entry of the merged track timeline. Exactly
// one of msg or tempo is set: tempo entries retime the clock, msg entries
// go to the wire.
type timedEvent struct {
	tick  int
	msg   []byte
	tempo int
}

// Play streams f to the named output port until the file ends or ctx is
// canceled. An empty port name selects the first available port. Files
// with SMPTE timing are rejected; the tick clock needs a quarter-note
// division.
func Play(ctx context.Context, f *smf.File, portName string, log zerolog.Logger) error {
	defer gomidi.CloseDriver()

	tpq := f.TicksPerQuarterNote()
	if tpq == 0 {
		return fmt.Errorf("SMPTE-timed files are not supported for playback")
	}

	out, err := findPort(portName)
	if err != nil {
		return err
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return fmt.Errorf("open output port %q: %w", out.String(), err)
	}
	log.Info().Str("port", out.String()).Msg("playback started")

	// Default tempo is 120 BPM until the file says otherwise.
	usPerQuarter := 500000
	lastTick := 0
	for _, te := range merge(f) {
		if wait := tickDuration(te.tick-lastTick, usPerQuarter, tpq); wait > 0 {
			select {
			case <-ctx.Done():
				silence(send, f)
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		lastTick = te.tick
		if te.tempo > 0 {
			usPerQuarter = te.tempo
			log.Debug().Int("us_per_quarter_note", te.tempo).Msg("tempo change")
			continue
		}
		if err := send(gomidi.Message(te.msg)); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}
	silence(send, f)
	log.Info().Msg("playback finished")
	return nil
}

// findPort resolves an output port by exact name, or the first port when
// name is empty.
func findPort(name string) (drivers.Out, error) {
	outs := gomidi.GetOutPorts()
	if len(outs) == 0 {
		return nil, fmt.Errorf("no MIDI output ports available")
	}
	if name == "" {
		return outs[0], nil
	}
	for _, port := range outs {
		if port.String() == name {
			return port, nil
		}
	}
	return nil, fmt.Errorf("MIDI output port %q not found", name)
}

// merge flattens all tracks into a single timeline ordered by absolute
// tick. Channel-voice events are replayed from their raw byte windows;
// running-status windows get their status byte restored from the record.
func merge(f *smf.File) []timedEvent {
	var timeline []timedEvent
	for i := range f.Tracks {
		for _, de := range f.Tracks[i].Events {
			ev := de.Event
			if ev.Meta {
				if ev.Type == event.Tempo {
					timeline = append(timeline, timedEvent{tick: ev.TotalTime, tempo: ev.Tempo})
				}
				continue
			}
			if ev.Type.IsSystem() {
				continue
			}
			win := f.Data()[de.Offset : de.Offset+de.Length]
			var msg []byte
			if len(win) > 0 && win[0] >= 0x80 {
				msg = win
			} else {
				msg = append([]byte{byte(ev.Type)}, win...)
			}
			timeline = append(timeline, timedEvent{tick: ev.TotalTime, msg: msg})
		}
	}
	sort.SliceStable(timeline, func(a, b int) bool {
		return timeline[a].tick < timeline[b].tick
	})
	return timeline
}

// tickDuration converts a tick delta to wall time under the current tempo.
func tickDuration(deltaTicks, usPerQuarter, ticksPerQuarter int) time.Duration {
	if deltaTicks <= 0 || ticksPerQuarter <= 0 {
		return 0
	}
	us := int64(deltaTicks) * int64(usPerQuarter) / int64(ticksPerQuarter)
	return time.Duration(us) * time.Microsecond
}

// silence releases anything still sounding: all-notes-off on every channel
// the file used.
func silence(send func(gomidi.Message) error, f *smf.File) {
	var channels [16]bool
	for i := range f.Tracks {
		for _, de := range f.Tracks[i].Events {
			ev := de.Event
			if !ev.Meta && !ev.Type.IsSystem() {
				channels[ev.Channel()] = true
			}
		}
	}
	for ch, used := range channels {
		if used {
			_ = send(gomidi.Message([]byte{byte(event.ControlChange) | byte(ch), 123, 0}))
		}
	}
}
