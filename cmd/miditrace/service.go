package main

import (
	"miditrace/internal/event"
	"miditrace/internal/hexutil"
	"miditrace/internal/smf"
	"miditrace/internal/stats"
	"miditrace/pkg/types"
)

// fileService adapts a decoded file to the httpapi.Service interface. The
// file is immutable once loaded, so stats are computed once up front.
type fileService struct {
	f  *smf.File
	st types.StatsResponse
}

func newFileService(f *smf.File) *fileService {
	return &fileService{f: f, st: stats.Collect(f).Response()}
}

func (s *fileService) Header() types.HeaderInfo {
	return types.HeaderInfo{
		Format:              int(s.f.Format),
		FormatName:          s.f.Format.String(),
		TrackCount:          len(s.f.Tracks),
		Division:            int(s.f.Division),
		TicksPerQuarterNote: s.f.TicksPerQuarterNote(),
	}
}

func (s *fileService) Tracks() []types.TrackInfo {
	infos := make([]types.TrackInfo, len(s.f.Tracks))
	for i := range s.f.Tracks {
		infos[i] = types.TrackInfo{
			Index:      i,
			EventCount: len(s.f.Tracks[i].Events),
			Ticks:      s.f.Tracks[i].Ticks,
		}
	}
	return infos
}

func (s *fileService) TrackEvents(index int) ([]types.EventRecord, error) {
	t, err := s.f.Track(index)
	if err != nil {
		return nil, err
	}
	records := make([]types.EventRecord, len(t.Events))
	for i := range t.Events {
		records[i] = eventRecord(&t.Events[i])
	}
	return records, nil
}

func (s *fileService) Stats() types.StatsResponse { return s.st }

func (s *fileService) Ready() bool { return s.f != nil }

func eventRecord(de *smf.DecodedEvent) types.EventRecord {
	ev := &de.Event
	rec := types.EventRecord{
		Offset:    hexutil.Offset(de.Offset),
		Name:      ev.Name(),
		Meta:      ev.Meta,
		TotalTime: ev.TotalTime,
		Delta:     ev.Delta,
	}
	if !ev.Meta && !ev.Type.IsSystem() {
		ch := ev.Channel()
		rec.Channel = &ch
	}
	switch {
	case !ev.Meta && (ev.Type&0xF0 == event.NoteOn || ev.Type&0xF0 == event.NoteOff):
		rec.Note = event.NoteName(ev.Note)
		rec.Velocity = int(ev.Velocity)
	case ev.Meta && ev.Type == event.Tempo:
		rec.Tempo = ev.Tempo
	}
	return rec
}
