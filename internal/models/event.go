package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Songs []EventSong `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"songs"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// EventSong places one song in an event's set-list. Order is 0-based and
// contiguous within an event.
type EventSong struct {
	ID      uint   `gorm:"primaryKey" json:"-"`
	EventID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_event_position" json:"eventId"`
	SongID  string `gorm:"type:varchar(36);not null;index" json:"songId"`
	Order   int    `gorm:"column:position;not null;uniqueIndex:idx_event_position" json:"order"`

	Song *Song `gorm:"foreignKey:SongID" json:"song,omitempty"`
}

// SongAdaptation is a singer's key override for one song.
type SongAdaptation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SongID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_song_singer" json:"songId"`
	SingerID  string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_song_singer;index" json:"singerId"`
	Key       Key       `gorm:"type:varchar(4);not null" json:"key"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Singer *User `gorm:"foreignKey:SingerID" json:"singer,omitempty"`
}

// EventInput is the body of event create requests. Date accepts
// RFC 3339 or a bare YYYY-MM-DD in the organization timezone.
type EventInput struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Date        string   `json:"date"`
	SongIDs     []string `json:"songIds"`
}

// EventUpdate is the body of event update requests. A nil SongIDs keeps
// the set-list; a non-nil one replaces it entirely.
type EventUpdate struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Date        *string   `json:"date"`
	SongIDs     *[]string `json:"songIds"`
}

type AdaptationInput struct {
	SingerID string `json:"singerId"`
	Key      string `json:"key"`
}
