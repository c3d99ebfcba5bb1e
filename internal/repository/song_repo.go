package repository

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"worship_management/internal/apperr"
	"worship_management/internal/models"
	"worship_management/internal/query"
)

var ErrSongNotFound = apperr.ErrNotFound.New("song not found")

type SongRepository interface {
	CreateSong(ctx context.Context, song *models.Song) error
	GetSongByID(ctx context.Context, id string) (*models.Song, error)
	GetSongsByIDs(ctx context.Context, ids []string) ([]models.Song, error)
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	UpdateSong(ctx context.Context, song *models.Song) error
	DeleteSong(ctx context.Context, id string) error
	ListSongs(ctx context.Context, q query.SongQuery) ([]models.Song, int64, error)
	GetFilterOptions(ctx context.Context) (*SongFilterOptions, error)
}

// SongFilterOptions are the distinct values present in the library, for
// populating filter pickers.
type SongFilterOptions struct {
	Tones   []string `json:"tones"`
	Paces   []string `json:"paces"`
	Styles  []string `json:"styles"`
	Tags    []string `json:"tags"`
	Natures []string `json:"natures"`
}

type songRepo struct {
	db *gorm.DB
}

func NewSongRepository(db *gorm.DB) SongRepository {
	return &songRepo{db: db}
}

func (r *songRepo) CreateSong(ctx context.Context, song *models.Song) error {
	return r.db.WithContext(ctx).Create(song).Error
}

func (r *songRepo) GetSongByID(ctx context.Context, id string) (*models.Song, error) {
	var song models.Song
	err := r.db.WithContext(ctx).First(&song, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSongNotFound
		}
		return nil, err
	}
	return &song, nil
}

func (r *songRepo) GetSongsByIDs(ctx context.Context, ids []string) ([]models.Song, error) {
	songs := []models.Song{}
	if len(ids) == 0 {
		return songs, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&songs).Error
	return songs, err
}

func (r *songRepo) ExistsByTitle(ctx context.Context, title string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Song{}).
		Where("title = ?", title).
		Count(&count).Error
	return count > 0, err
}

func (r *songRepo) UpdateSong(ctx context.Context, song *models.Song) error {
	return r.db.WithContext(ctx).Save(song).Error
}

// DeleteSong removes the song with its adaptations and set-list entries.
func (r *songRepo) DeleteSong(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("song_id = ?", id).Delete(&models.SongAdaptation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("song_id = ?", id).Delete(&models.EventSong{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Song{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSongNotFound
		}
		return nil
	})
}

// ListSongs runs q and returns one page of songs plus the total number
// of songs matching the filters.
func (r *songRepo) ListSongs(ctx context.Context, q query.SongQuery) ([]models.Song, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Song{})
	for _, c := range q.Where {
		base = base.Where(c.SQL, c.Args...)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	songs := []models.Song{}
	err := base.Session(&gorm.Session{}).
		Order(q.OrderBy).
		Order("id ASC").
		Offset(q.Skip).
		Limit(q.Take).
		Find(&songs).Error
	if err != nil {
		return nil, 0, err
	}
	return songs, total, nil
}

func (r *songRepo) GetFilterOptions(ctx context.Context) (*SongFilterOptions, error) {
	db := r.db.WithContext(ctx).Model(&models.Song{})
	opts := &SongFilterOptions{}

	for column, dest := range map[string]*[]string{
		"tone":  &opts.Tones,
		"pace":  &opts.Paces,
		"style": &opts.Styles,
	} {
		if err := db.Session(&gorm.Session{}).Distinct().Order(column).Pluck(column, dest).Error; err != nil {
			return nil, err
		}
		*dest = dropEmpty(*dest)
	}

	var tags, natures []string
	if err := db.Session(&gorm.Session{}).Distinct().Pluck("tags", &tags).Error; err != nil {
		return nil, err
	}
	if err := db.Session(&gorm.Session{}).Distinct().Pluck("nature", &natures).Error; err != nil {
		return nil, err
	}
	opts.Tags = splitDistinct(tags, models.SplitTags)
	opts.Natures = splitDistinct(natures, models.SplitNature)
	return opts, nil
}

func dropEmpty(values []string) []string {
	out := []string{}
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func splitDistinct(values []string, split func(string) []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, v := range values {
		for _, part := range split(v) {
			if !seen[part] {
				seen[part] = true
				out = append(out, part)
			}
		}
	}
	sort.Strings(out)
	return out
}
