package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"worship_management/internal/apperr"
	"worship_management/internal/database/dbtest"
	"worship_management/internal/models"
	"worship_management/internal/query"
	"worship_management/internal/repository"
)

func seedSong(t *testing.T, db *gorm.DB, title string, tone models.Key, style, tags string) models.Song {
	t.Helper()
	song := models.Song{
		Title:          title,
		Tone:           tone,
		BPM:            "72",
		OriginalSinger: "Hillsong",
		Author:         "Reuben Morgan",
		Pace:           models.PaceModerate,
		Style:          style,
		Tags:           tags,
		Nature:         "adoration",
	}
	require.NoError(t, db.Create(&song).Error)
	return song
}

func titles(songs []models.Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.Title
	}
	return out
}

func TestListSongsFilterSemantics(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	repo := repository.NewSongRepository(db)

	seedSong(t, db, "Amazing Grace", models.KeyC, "Hymn", "grace,classic")
	seedSong(t, db, "Oceans", models.KeyD, "Contemporary", "hope")
	seedSong(t, db, "How Great Thou Art", models.KeyD, "Hymn", "ab")
	seedSong(t, db, "Way Maker", models.KeyE, "Contemporary", "a/b")

	list := func(f query.SongFilters) []string {
		songs, total, err := repo.ListSongs(ctx, query.BuildSongQuery(f, query.Sort{}, 1, 10))
		require.NoError(t, err)
		assert.EqualValues(t, len(songs), total)
		return titles(songs)
	}

	assert.Equal(t,
		[]string{"Amazing Grace", "How Great Thou Art", "Oceans"},
		list(query.SongFilters{Tones: []string{"C", "D"}}))

	assert.Equal(t,
		[]string{"Amazing Grace", "How Great Thou Art"},
		list(query.SongFilters{Tones: []string{"C", "D"}, Styles: []string{"Hymn"}}))

	// Substring match: "a" hits "grace,classic", "ab" and "a/b".
	assert.Equal(t,
		[]string{"Amazing Grace", "How Great Thou Art", "Way Maker"},
		list(query.SongFilters{Tags: []string{"a"}}))

	assert.Equal(t,
		[]string{"Oceans", "Way Maker"},
		list(query.SongFilters{Tags: []string{"hope", "a/b"}}))

	assert.Equal(t, []string{"How Great Thou Art"}, list(query.SongFilters{Search: "great"}))
	assert.Equal(t, []string{"Amazing Grace", "How Great Thou Art", "Oceans", "Way Maker"}, list(query.SongFilters{Search: "reuben"}))
	assert.Empty(t, list(query.SongFilters{Tags: []string{"%"}}))
}

func TestListSongsHasEvents(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	repo := repository.NewSongRepository(db)
	events := repository.NewEventRepository(db)

	scheduled := seedSong(t, db, "Scheduled", models.KeyC, "Hymn", "")
	seedSong(t, db, "Unscheduled", models.KeyC, "Hymn", "")
	require.NoError(t, events.CreateEvent(ctx, &models.Event{Title: "Sunday", Date: time.Now().UTC()}, []string{scheduled.ID}))

	yes, no := true, false
	songs, _, err := repo.ListSongs(ctx, query.BuildSongQuery(query.SongFilters{HasEvents: &yes}, query.Sort{}, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"Scheduled"}, titles(songs))

	songs, _, err = repo.ListSongs(ctx, query.BuildSongQuery(query.SongFilters{HasEvents: &no}, query.Sort{}, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"Unscheduled"}, titles(songs))
}

func TestListSongsPagesAndSorts(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	repo := repository.NewSongRepository(db)

	for _, title := range []string{"E", "A", "D", "C", "B"} {
		seedSong(t, db, title, models.KeyC, "Hymn", "")
	}

	songs, total, err := repo.ListSongs(ctx, query.BuildSongQuery(query.SongFilters{}, query.Sort{Field: "title", Order: "desc"}, 2, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Equal(t, []string{"C", "B"}, titles(songs))
}

func TestDeleteSongCascades(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	songs := repository.NewSongRepository(db)
	adaptations := repository.NewAdaptationRepository(db)
	events := repository.NewEventRepository(db)
	users := repository.NewUserRepository(db)

	song := seedSong(t, db, "Oceans", models.KeyD, "Contemporary", "")
	singer := &models.User{Name: "Ana", Email: "ana@example.com", Password: "x", Role: models.RoleSinger}
	require.NoError(t, users.CreateUser(ctx, singer))
	require.NoError(t, adaptations.CreateAdaptation(ctx, &models.SongAdaptation{SongID: song.ID, SingerID: singer.ID, Key: models.KeyB}))
	event := &models.Event{Title: "Sunday", Date: time.Now().UTC()}
	require.NoError(t, events.CreateEvent(ctx, event, []string{song.ID}))

	require.NoError(t, songs.DeleteSong(ctx, song.ID))

	var count int64
	require.NoError(t, db.Model(&models.SongAdaptation{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.EventSong{}).Count(&count).Error)
	assert.Zero(t, count)

	err := songs.DeleteSong(ctx, song.ID)
	assert.Equal(t, 404, apperr.Status(err))
}

func TestAdaptationCRUD(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	adaptations := repository.NewAdaptationRepository(db)
	users := repository.NewUserRepository(db)

	song := seedSong(t, db, "Oceans", models.KeyD, "Contemporary", "")
	singer := &models.User{Name: "Ana", Email: "ana@example.com", Password: "x", Role: models.RoleSinger}
	require.NoError(t, users.CreateUser(ctx, singer))

	require.NoError(t, adaptations.CreateAdaptation(ctx, &models.SongAdaptation{SongID: song.ID, SingerID: singer.ID, Key: models.KeyB}))
	err := adaptations.CreateAdaptation(ctx, &models.SongAdaptation{SongID: song.ID, SingerID: singer.ID, Key: models.KeyC})
	assert.True(t, apperr.ErrConflict.Has(err))

	a, err := adaptations.UpdateAdaptationKey(ctx, song.ID, singer.ID, models.KeyA)
	require.NoError(t, err)
	assert.Equal(t, models.KeyA, a.Key)
	require.NotNil(t, a.Singer)
	assert.Equal(t, "Ana", a.Singer.Name)

	list, err := adaptations.ListBySongIDs(ctx, []string{song.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, adaptations.DeleteAdaptation(ctx, song.ID, singer.ID))
	assert.True(t, apperr.ErrNotFound.Has(adaptations.DeleteAdaptation(ctx, song.ID, singer.ID)))
	_, err = adaptations.UpdateAdaptationKey(ctx, song.ID, singer.ID, models.KeyA)
	assert.True(t, apperr.ErrNotFound.Has(err))
}

func TestEventSetListIsReplaced(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	events := repository.NewEventRepository(db)

	a := seedSong(t, db, "A", models.KeyC, "Hymn", "")
	b := seedSong(t, db, "B", models.KeyC, "Hymn", "")
	c := seedSong(t, db, "C", models.KeyC, "Hymn", "")

	event := &models.Event{Title: "Sunday", Date: time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)}
	require.NoError(t, events.CreateEvent(ctx, event, []string{a.ID, b.ID, c.ID}))

	newOrder := []string{c.ID, a.ID}
	event.Title = "Sunday evening"
	require.NoError(t, events.UpdateEvent(ctx, event, &newOrder))

	got, err := events.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sunday evening", got.Title)
	require.Len(t, got.Songs, 2)
	assert.Equal(t, 0, got.Songs[0].Order)
	assert.Equal(t, c.ID, got.Songs[0].SongID)
	require.NotNil(t, got.Songs[0].Song)
	assert.Equal(t, "C", got.Songs[0].Song.Title)
	assert.Equal(t, 1, got.Songs[1].Order)
	assert.Equal(t, a.ID, got.Songs[1].SongID)

	var count int64
	require.NoError(t, db.Model(&models.EventSong{}).Where("event_id = ?", event.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	// Without song ids the set-list stays.
	event.Title = "Renamed"
	require.NoError(t, events.UpdateEvent(ctx, event, nil))
	got, err = events.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, got.Songs, 2)

	require.NoError(t, events.DeleteEvent(ctx, event.ID))
	require.NoError(t, db.Model(&models.EventSong{}).Count(&count).Error)
	assert.Zero(t, count)
	_, err = events.GetEventByID(ctx, event.ID)
	assert.True(t, apperr.ErrNotFound.Has(err))
}

func TestListEventsBetween(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	events := repository.NewEventRepository(db)

	for _, d := range []time.Time{
		time.Date(2026, 2, 28, 23, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC),
	} {
		require.NoError(t, events.CreateEvent(ctx, &models.Event{Title: d.Format(time.RFC3339), Date: d}, nil))
	}

	got, err := events.ListEventsBetween(ctx,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-03-01T03:00:00Z", got[0].Title)
	assert.Equal(t, "2026-03-31T12:00:00Z", got[1].Title)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	users := repository.NewUserRepository(db)

	hash, err := users.HashPassword("secret1")
	require.NoError(t, err)
	require.NoError(t, users.VerifyPassword(hash, "secret1"))
	require.Error(t, users.VerifyPassword(hash, "wrong"))

	require.NoError(t, users.CreateUser(ctx, &models.User{Name: "Zoe", Email: "Zoe@Example.com", Password: hash, Role: models.RoleSinger}))
	require.NoError(t, users.CreateUser(ctx, &models.User{Name: "Root", Email: "root@example.com", Password: hash, Role: models.RoleAdmin}))
	require.NoError(t, users.CreateUser(ctx, &models.User{Name: "Ana", Email: "ana@example.com", Password: hash, Role: models.RoleSinger}))

	err = users.CreateUser(ctx, &models.User{Name: "Dup", Email: "ana@example.com", Password: hash})
	assert.True(t, apperr.ErrConflict.Has(err))

	u, err := users.FindUserByEmail(ctx, " ZOE@example.com ")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Zoe", u.Name)

	u, err = users.FindUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)

	list, err := users.ListUsers(ctx, "root@example.com")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ana", list[0].Name)
	assert.Equal(t, "Zoe", list[1].Name)

	_, err = users.FindUserByID(ctx, "missing")
	assert.True(t, apperr.ErrNotFound.Has(err))
}
