package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"worship_management/internal/apperr"
	"worship_management/internal/models"
)

var ErrEventNotFound = apperr.ErrNotFound.New("event not found")

type EventRepository interface {
	ListEventsBetween(ctx context.Context, start, end time.Time) ([]models.Event, error)
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event, songIDs []string) error
	UpdateEvent(ctx context.Context, event *models.Event, songIDs *[]string) error
	DeleteEvent(ctx context.Context, id string) error
}

type eventRepo struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func preloadSetList(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Songs", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Songs.Song")
}

// ListEventsBetween returns events with start <= date < end, earliest
// first.
func (r *eventRepo) ListEventsBetween(ctx context.Context, start, end time.Time) ([]models.Event, error) {
	events := []models.Event{}
	err := preloadSetList(r.db.WithContext(ctx)).
		Where("date >= ? AND date < ?", start, end).
		Order("date ASC").
		Find(&events).Error
	return events, err
}

func (r *eventRepo) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := preloadSetList(r.db.WithContext(ctx)).First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) CreateEvent(ctx context.Context, event *models.Event, songIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		event.Songs = nil
		if err := tx.Omit("Songs").Create(event).Error; err != nil {
			return err
		}
		return insertSetList(tx, event.ID, songIDs)
	})
}

// UpdateEvent saves event's own fields and, when songIDs is non-nil,
// replaces its whole set-list in the same transaction.
func (r *eventRepo) UpdateEvent(ctx context.Context, event *models.Event, songIDs *[]string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Event{}).
			Where("id = ?", event.ID).
			Updates(map[string]interface{}{
				"title":       event.Title,
				"description": event.Description,
				"date":        event.Date,
				"updated_at":  time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrEventNotFound
		}
		if songIDs == nil {
			return nil
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.EventSong{}).Error; err != nil {
			return err
		}
		return insertSetList(tx, event.ID, *songIDs)
	})
}

func (r *eventRepo) DeleteEvent(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventSong{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Event{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrEventNotFound
		}
		return nil
	})
}

// insertSetList stores songIDs in order, position = index.
func insertSetList(tx *gorm.DB, eventID string, songIDs []string) error {
	if len(songIDs) == 0 {
		return nil
	}
	rows := make([]models.EventSong, len(songIDs))
	for i, songID := range songIDs {
		rows[i] = models.EventSong{EventID: eventID, SongID: songID, Order: i}
	}
	return tx.Omit("Song").Create(&rows).Error
}
