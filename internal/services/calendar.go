package services

import (
	"context"
	"time"

	"worship_management/internal/models"
)

// CalendarDay is one cell of a month grid.
type CalendarDay struct {
	Date    string         `json:"date"`
	InMonth bool           `json:"inMonth"`
	Events  []models.Event `json:"events"`
}

// MonthGrid lays a month out in Monday-first weeks, padded with the
// neighbouring months' days so every week has seven cells.
type MonthGrid struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Weeks [][]CalendarDay `json:"weeks"`
}

// gridBounds returns the first and one-past-last day shown for the month.
func gridBounds(year int, month time.Month, loc *time.Location) (start, end time.Time) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	start = first.AddDate(0, 0, -mondayOffset(first))
	last := first.AddDate(0, 1, -1)
	end = last.AddDate(0, 0, 7-mondayOffset(last))
	return start, end
}

// mondayOffset is the number of days t is past the preceding Monday.
func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// BuildMonthGrid places events on the days they fall on in loc.
func BuildMonthGrid(year int, month time.Month, loc *time.Location, events []models.Event) MonthGrid {
	byDay := map[string][]models.Event{}
	for _, e := range events {
		day := e.Date.In(loc).Format(dateLayout)
		byDay[day] = append(byDay[day], e)
	}

	grid := MonthGrid{Year: year, Month: int(month), Weeks: [][]CalendarDay{}}
	start, end := gridBounds(year, month, loc)
	var week []CalendarDay
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		dayEvents := byDay[key]
		if dayEvents == nil {
			dayEvents = []models.Event{}
		}
		week = append(week, CalendarDay{
			Date:    key,
			InMonth: d.Month() == month,
			Events:  dayEvents,
		})
		if len(week) == 7 {
			grid.Weeks = append(grid.Weeks, week)
			week = nil
		}
	}
	return grid
}

// GetMonthGrid loads every event visible on the month's grid, including
// the padding days.
func (s *EventService) GetMonthGrid(ctx context.Context, year, month int) (*MonthGrid, error) {
	if err := validateMonth(year, month); err != nil {
		return nil, err
	}
	start, end := gridBounds(year, time.Month(month), s.loc)
	events, err := s.events.ListEventsBetween(ctx, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	grid := BuildMonthGrid(year, time.Month(month), s.loc, events)
	return &grid, nil
}
