package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worship_management/internal/database/dbtest"
	"worship_management/internal/models"
)

func TestAutoMigrateCreatesTables(t *testing.T) {
	db := dbtest.Open(t)

	for _, table := range []interface{}{
		&models.User{}, &models.Song{}, &models.Event{},
		&models.SongAdaptation{}, &models.EventSong{},
	} {
		assert.True(t, db.Migrator().HasTable(table), "%T", table)
	}
}

func TestAdaptationPairIsUnique(t *testing.T) {
	db := dbtest.Open(t)

	singer := models.User{Name: "Ana", Email: "ana@example.com", Password: "x", Role: models.RoleSinger}
	require.NoError(t, db.Create(&singer).Error)
	song := models.Song{Title: "Way Maker", Tone: models.KeyE, BPM: "68", Pace: models.PaceSlow}
	require.NoError(t, db.Create(&song).Error)

	require.NoError(t, db.Create(&models.SongAdaptation{SongID: song.ID, SingerID: singer.ID, Key: models.KeyD}).Error)
	assert.Error(t, db.Create(&models.SongAdaptation{SongID: song.ID, SingerID: singer.ID, Key: models.KeyC}).Error)
}
