package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"worship_management/internal/apperr"
	"worship_management/internal/models"
	"worship_management/internal/repository"
)

const dateLayout = "2006-01-02"

type EventService struct {
	events repository.EventRepository
	songs  repository.SongRepository
	loc    *time.Location
	log    *zap.Logger
}

// NewEventService schedules events in the organization's timezone loc.
func NewEventService(events repository.EventRepository, songs repository.SongRepository, loc *time.Location, log *zap.Logger) *EventService {
	if loc == nil {
		loc = time.UTC
	}
	return &EventService{events: events, songs: songs, loc: loc, log: log}
}

// MonthWindow is [first instant of the month, first instant of the next
// month) in loc, expressed in UTC.
func MonthWindow(year int, month time.Month, loc *time.Location) (start, end time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return first.UTC(), first.AddDate(0, 1, 0).UTC()
}

func validateMonth(year, month int) error {
	if month < 1 || month > 12 {
		return apperr.ErrValidation.New("month must be between 1 and 12")
	}
	if year < 1 || year > 9999 {
		return apperr.ErrValidation.New("invalid year %d", year)
	}
	return nil
}

func (s *EventService) GetEventsInMonth(ctx context.Context, year, month int) ([]models.Event, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}
	start, end := MonthWindow(year, time.Month(month), s.loc)
	return s.events.ListEventsBetween(ctx, start, end)
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	return s.events.GetEventByID(ctx, id)
}

func (s *EventService) CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.ErrValidation.New("title is required")
	}
	date, err := s.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	songIDs := in.SongIDs
	if songIDs == nil {
		songIDs = []string{}
	}
	if err := s.checkSongs(ctx, songIDs); err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:       title,
		Description: cleanDescription(in.Description),
		Date:        date,
	}
	if err := s.events.CreateEvent(ctx, event, songIDs); err != nil {
		return nil, err
	}
	s.log.Info("event created", zap.String("event_id", event.ID), zap.Time("date", event.Date), zap.Int("songs", len(songIDs)))
	return s.events.GetEventByID(ctx, event.ID)
}

// UpdateEvent applies the non-nil fields of in. A non-nil SongIDs
// replaces the whole set-list.
func (s *EventService) UpdateEvent(ctx context.Context, id string, in models.EventUpdate) (*models.Event, error) {
	event, err := s.events.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperr.ErrValidation.New("title is required")
		}
		event.Title = title
	}
	if in.Description != nil {
		event.Description = cleanDescription(in.Description)
	}
	if in.Date != nil {
		date, err := s.ParseDate(*in.Date)
		if err != nil {
			return nil, err
		}
		event.Date = date
	}
	if in.SongIDs != nil {
		if err := s.checkSongs(ctx, *in.SongIDs); err != nil {
			return nil, err
		}
	}

	if err := s.events.UpdateEvent(ctx, event, in.SongIDs); err != nil {
		return nil, err
	}
	return s.events.GetEventByID(ctx, id)
}

func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if err := s.events.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.log.Info("event deleted", zap.String("event_id", id))
	return nil
}

// ParseDate accepts RFC 3339 or a bare YYYY-MM-DD, which is midnight in
// the organization timezone. The result is UTC, truncated to seconds.
func (s *EventService) ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, apperr.ErrValidation.New("date is required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC().Truncate(time.Second), nil
	}
	if t, err := time.ParseInLocation(dateLayout, raw, s.loc); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, apperr.ErrValidation.New("invalid date %q", raw)
}

// checkSongs rejects ids that name no song. Repeats are allowed.
func (s *EventService) checkSongs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.songs.GetSongsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(found))
	for _, song := range found {
		known[song.ID] = true
	}
	var unknown []string
	for _, id := range ids {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return apperr.ErrValidation.New("unknown song ids: %s", strings.Join(unknown, ", "))
	}
	return nil
}

func cleanDescription(d *string) *string {
	if d == nil {
		return nil
	}
	v := strings.TrimSpace(*d)
	if v == "" {
		return nil
	}
	return &v
}
