package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Song struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title          string    `gorm:"type:varchar(255);not null;index" json:"title"`
	Tone           Key       `gorm:"type:varchar(4);not null;index" json:"tone"`
	BPM            string    `gorm:"column:bpm;type:varchar(32);not null" json:"bpm"`
	OriginalSinger string    `gorm:"column:original_singer;type:varchar(255);not null" json:"originalSinger"`
	Author         string    `gorm:"type:varchar(255);not null" json:"author"`
	Pace           Pace      `gorm:"type:varchar(16);not null;index" json:"pace"`
	Style          string    `gorm:"type:varchar(100);not null;index" json:"style"`
	Tags           string    `gorm:"type:text;not null" json:"tags"`
	Nature         string    `gorm:"type:text;not null" json:"nature"`
	Lyrics         *string   `gorm:"type:text" json:"lyrics,omitempty"`
	PDFKey         string    `gorm:"column:pdf_key;type:varchar(255)" json:"-"`
	PDFURL         string    `gorm:"column:pdf_url;type:text" json:"pdfUrl,omitempty"`
	AudioKey       string    `gorm:"column:audio_key;type:varchar(255)" json:"-"`
	AudioURL       string    `gorm:"column:audio_url;type:text" json:"audioUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	Adaptations []SongAdaptation `gorm:"foreignKey:SongID;constraint:OnDelete:CASCADE" json:"-"`
	EventSongs  []EventSong      `gorm:"foreignKey:SongID;constraint:OnDelete:CASCADE" json:"-"`

	// Derived per request; never stored.
	MatchingSingers []MatchingSinger `gorm:"-" json:"matchingSingers,omitempty"`
}

func (s *Song) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// MatchingSinger is a singer who has a usable key for a song.
type MatchingSinger struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Key  Key    `json:"key"`
}

// SongInput is the body of song create and update requests.
type SongInput struct {
	Title          string     `json:"title"`
	Tone           string     `json:"tone"`
	BPM            FlexString `json:"bpm"`
	OriginalSinger string     `json:"originalSinger"`
	Author         string     `json:"author"`
	Pace           string     `json:"pace"`
	Style          string     `json:"style"`
	Tags           string     `json:"tags"`
	Nature         string     `json:"nature"`
	Lyrics         *string    `json:"lyrics"`
}

// FlexString accepts a JSON string or number. Tempo arrives as 72 from
// some clients and "70-80" from others; both are stored as text.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// TagSeparator is the canonical delimiter of Song.Tags.
const TagSeparator = ","

// SplitTags splits a tags value on either "," or "/", which older rows
// still use, trimming blanks.
func SplitTags(tags string) []string {
	fields := strings.FieldsFunc(tags, func(r rune) bool {
		return r == ',' || r == '/'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// NormalizeTags rewrites a tags value with the canonical delimiter.
func NormalizeTags(tags string) string {
	return strings.Join(SplitTags(tags), TagSeparator)
}

// SplitNature splits the comma-separated nature field.
func SplitNature(nature string) []string {
	out := []string{}
	for _, f := range strings.Split(nature, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
