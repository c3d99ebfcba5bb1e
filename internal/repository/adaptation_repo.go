package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"worship_management/internal/apperr"
	"worship_management/internal/models"
)

var (
	ErrAdaptationNotFound = apperr.ErrNotFound.New("adaptation not found")
	ErrAdaptationExists   = apperr.ErrConflict.New("adaptation already exists for this singer")
)

type AdaptationRepository interface {
	ListBySong(ctx context.Context, songID string) ([]models.SongAdaptation, error)
	ListBySongIDs(ctx context.Context, songIDs []string) ([]models.SongAdaptation, error)
	GetAdaptation(ctx context.Context, songID, singerID string) (*models.SongAdaptation, error)
	CreateAdaptation(ctx context.Context, a *models.SongAdaptation) error
	UpdateAdaptationKey(ctx context.Context, songID, singerID string, key models.Key) (*models.SongAdaptation, error)
	DeleteAdaptation(ctx context.Context, songID, singerID string) error
}

type adaptationRepo struct {
	db *gorm.DB
}

func NewAdaptationRepository(db *gorm.DB) AdaptationRepository {
	return &adaptationRepo{db: db}
}

func (r *adaptationRepo) ListBySong(ctx context.Context, songID string) ([]models.SongAdaptation, error) {
	adaptations := []models.SongAdaptation{}
	err := r.db.WithContext(ctx).
		Preload("Singer").
		Where("song_id = ?", songID).
		Order("id ASC").
		Find(&adaptations).Error
	return adaptations, err
}

// ListBySongIDs fetches the adaptations of many songs in one query so
// listings avoid a query per song.
func (r *adaptationRepo) ListBySongIDs(ctx context.Context, songIDs []string) ([]models.SongAdaptation, error) {
	adaptations := []models.SongAdaptation{}
	if len(songIDs) == 0 {
		return adaptations, nil
	}
	err := r.db.WithContext(ctx).Where("song_id IN ?", songIDs).Find(&adaptations).Error
	return adaptations, err
}

func (r *adaptationRepo) GetAdaptation(ctx context.Context, songID, singerID string) (*models.SongAdaptation, error) {
	var a models.SongAdaptation
	err := r.db.WithContext(ctx).
		Preload("Singer").
		Where("song_id = ? AND singer_id = ?", songID, singerID).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdaptationNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *adaptationRepo) CreateAdaptation(ctx context.Context, a *models.SongAdaptation) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SongAdaptation{}).
		Where("song_id = ? AND singer_id = ?", a.SongID, a.SingerID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrAdaptationExists
	}

	// The unique index still guards against a concurrent insert.
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAdaptationExists
		}
		return err
	}
	return nil
}

func (r *adaptationRepo) UpdateAdaptationKey(ctx context.Context, songID, singerID string, key models.Key) (*models.SongAdaptation, error) {
	res := r.db.WithContext(ctx).Model(&models.SongAdaptation{}).
		Where("song_id = ? AND singer_id = ?", songID, singerID).
		Update("key", key)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAdaptationNotFound
	}
	return r.GetAdaptation(ctx, songID, singerID)
}

func (r *adaptationRepo) DeleteAdaptation(ctx context.Context, songID, singerID string) error {
	res := r.db.WithContext(ctx).
		Where("song_id = ? AND singer_id = ?", songID, singerID).
		Delete(&models.SongAdaptation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAdaptationNotFound
	}
	return nil
}
