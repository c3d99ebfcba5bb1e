package services

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"worship_management/internal/apperr"
	"worship_management/internal/models"
	"worship_management/internal/query"
	"worship_management/internal/repository"
	"worship_management/internal/storage"
)

// File kinds that can be attached to a song.
const (
	FileKindPDF   = "pdf"
	FileKindAudio = "audio"
)

// sniffLen is how many leading bytes filetype needs to recognize any
// type it knows.
const sniffLen = 261

// SongList is one page of the song library.
type SongList struct {
	Songs      []models.Song                 `json:"songs"`
	Pagination query.Pagination              `json:"pagination"`
	Filters    *repository.SongFilterOptions `json:"filters"`
}

type SongService struct {
	songs          repository.SongRepository
	adaptations    repository.AdaptationRepository
	users          repository.UserRepository
	store          storage.Storage
	superuserEmail string
	log            *zap.Logger
}

func NewSongService(
	songs repository.SongRepository,
	adaptations repository.AdaptationRepository,
	users repository.UserRepository,
	store storage.Storage,
	superuserEmail string,
	log *zap.Logger,
) *SongService {
	return &SongService{
		songs:          songs,
		adaptations:    adaptations,
		users:          users,
		store:          store,
		superuserEmail: superuserEmail,
		log:            log,
	}
}

// ListSongs returns the page described by state, each song annotated
// with the singers who have a usable key for it.
func (s *SongService) ListSongs(ctx context.Context, state query.ListState) (*SongList, error) {
	songs, total, err := s.songs.ListSongs(ctx, state.Query())
	if err != nil {
		return nil, err
	}
	if err := s.annotate(ctx, songs); err != nil {
		return nil, err
	}
	filters, err := s.songs.GetFilterOptions(ctx)
	if err != nil {
		return nil, err
	}
	return &SongList{
		Songs:      songs,
		Pagination: query.ComputePagination(total, state.Page, state.Limit),
		Filters:    filters,
	}, nil
}

func (s *SongService) GetSong(ctx context.Context, id string) (*models.Song, error) {
	song, err := s.songs.GetSongByID(ctx, id)
	if err != nil {
		return nil, err
	}
	list := []models.Song{*song}
	if err := s.annotate(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// annotate fills MatchingSingers with one adaptations query for the
// whole batch.
func (s *SongService) annotate(ctx context.Context, songs []models.Song) error {
	if len(songs) == 0 {
		return nil
	}
	ids := make([]string, len(songs))
	for i, song := range songs {
		ids[i] = song.ID
	}
	adaptations, err := s.adaptations.ListBySongIDs(ctx, ids)
	if err != nil {
		return err
	}
	singers, err := s.users.ListUsers(ctx, s.superuserEmail)
	if err != nil {
		return err
	}
	AnnotateMatchingSingers(songs, singers, adaptations)
	return nil
}

func (s *SongService) CreateSong(ctx context.Context, in models.SongInput) (*models.Song, error) {
	song, err := songFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.songs.CreateSong(ctx, &song); err != nil {
		return nil, err
	}
	s.log.Info("song created", zap.String("song_id", song.ID), zap.String("title", song.Title))
	return &song, nil
}

func (s *SongService) UpdateSong(ctx context.Context, id string, in models.SongInput) (*models.Song, error) {
	existing, err := s.songs.GetSongByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := songFromInput(in)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.PDFKey, updated.PDFURL = existing.PDFKey, existing.PDFURL
	updated.AudioKey, updated.AudioURL = existing.AudioKey, existing.AudioURL
	if err := s.songs.UpdateSong(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteSong removes the song, its adaptations and set-list entries, and
// any attached files. A file that fails to delete is logged, not fatal.
func (s *SongService) DeleteSong(ctx context.Context, id string) error {
	song, err := s.songs.GetSongByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.songs.DeleteSong(ctx, id); err != nil {
		return err
	}
	for _, key := range []string{song.PDFKey, song.AudioKey} {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			s.log.Warn("failed to delete song file", zap.String("song_id", id), zap.String("key", key), zap.Error(err))
		}
	}
	s.log.Info("song deleted", zap.String("song_id", id))
	return nil
}

func songFromInput(in models.SongInput) (models.Song, error) {
	song := models.Song{
		Title:          strings.TrimSpace(in.Title),
		BPM:            strings.TrimSpace(string(in.BPM)),
		OriginalSinger: strings.TrimSpace(in.OriginalSinger),
		Author:         strings.TrimSpace(in.Author),
		Style:          strings.TrimSpace(in.Style),
		Tags:           models.NormalizeTags(in.Tags),
		Nature:         strings.Join(models.SplitNature(in.Nature), ", "),
		Lyrics:         in.Lyrics,
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"title", song.Title},
		{"tone", in.Tone},
		{"bpm", song.BPM},
		{"originalSinger", song.OriginalSinger},
		{"author", song.Author},
		{"pace", in.Pace},
		{"style", song.Style},
		{"tags", song.Tags},
		{"nature", song.Nature},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return song, apperr.ErrValidation.New("missing required fields: %s", strings.Join(missing, ", "))
	}

	tone, ok := models.ParseKey(in.Tone)
	if !ok {
		return song, apperr.ErrValidation.New("invalid tone %q", in.Tone)
	}
	pace, ok := models.ParsePace(in.Pace)
	if !ok {
		return song, apperr.ErrValidation.New("invalid pace %q", in.Pace)
	}
	song.Tone, song.Pace = tone, pace

	if song.Lyrics != nil && strings.TrimSpace(*song.Lyrics) == "" {
		song.Lyrics = nil
	}
	return song, nil
}

func (s *SongService) ListAdaptations(ctx context.Context, songID string) ([]models.SongAdaptation, error) {
	if _, err := s.songs.GetSongByID(ctx, songID); err != nil {
		return nil, err
	}
	return s.adaptations.ListBySong(ctx, songID)
}

func (s *SongService) CreateAdaptation(ctx context.Context, songID string, in models.AdaptationInput) (*models.SongAdaptation, error) {
	key, ok := models.ParseKey(in.Key)
	if !ok {
		return nil, apperr.ErrValidation.New("invalid key %q", in.Key)
	}
	if strings.TrimSpace(in.SingerID) == "" {
		return nil, apperr.ErrValidation.New("singerId is required")
	}
	if _, err := s.songs.GetSongByID(ctx, songID); err != nil {
		return nil, err
	}
	if _, err := s.users.FindUserByID(ctx, in.SingerID); err != nil {
		return nil, err
	}

	a := &models.SongAdaptation{SongID: songID, SingerID: in.SingerID, Key: key}
	if err := s.adaptations.CreateAdaptation(ctx, a); err != nil {
		return nil, err
	}
	return s.adaptations.GetAdaptation(ctx, songID, in.SingerID)
}

func (s *SongService) UpdateAdaptation(ctx context.Context, songID, singerID, rawKey string) (*models.SongAdaptation, error) {
	key, ok := models.ParseKey(rawKey)
	if !ok {
		return nil, apperr.ErrValidation.New("invalid key %q", rawKey)
	}
	return s.adaptations.UpdateAdaptationKey(ctx, songID, singerID, key)
}

func (s *SongService) DeleteAdaptation(ctx context.Context, songID, singerID string) error {
	return s.adaptations.DeleteAdaptation(ctx, songID, singerID)
}

// AttachFile stores r as the song's file of the given kind, replacing any
// previous one. The content type is sniffed, not trusted from the client.
func (s *SongService) AttachFile(ctx context.Context, songID, kind string, r io.Reader) (*models.Song, error) {
	if kind != FileKindPDF && kind != FileKindAudio {
		return nil, apperr.ErrValidation.New("unknown file kind %q", kind)
	}
	song, err := s.songs.GetSongByID(ctx, songID)
	if err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	head = head[:n]

	typ, _ := filetype.Match(head)
	switch kind {
	case FileKindPDF:
		if typ.Extension != "pdf" {
			return nil, apperr.ErrValidation.New("file is not a PDF")
		}
	case FileKindAudio:
		if !filetype.IsAudio(head) {
			return nil, apperr.ErrValidation.New("file is not a supported audio format")
		}
	}

	key := storage.SongFileKey(song.ID, kind, typ.Extension)
	url, err := s.store.Upload(ctx, io.MultiReader(bytes.NewReader(head), r), key, typ.MIME.Value)
	if err != nil {
		return nil, err
	}

	oldKey := song.PDFKey
	if kind == FileKindPDF {
		song.PDFKey, song.PDFURL = key, url
	} else {
		oldKey = song.AudioKey
		song.AudioKey, song.AudioURL = key, url
	}
	if err := s.songs.UpdateSong(ctx, song); err != nil {
		return nil, err
	}
	if oldKey != "" && oldKey != key {
		if err := s.store.Delete(ctx, oldKey); err != nil {
			s.log.Warn("failed to delete replaced file", zap.String("key", oldKey), zap.Error(err))
		}
	}
	s.log.Info("song file attached", zap.String("song_id", song.ID), zap.String("kind", kind), zap.String("key", key))
	return song, nil
}

func (s *SongService) DetachFile(ctx context.Context, songID, kind string) (*models.Song, error) {
	song, err := s.songs.GetSongByID(ctx, songID)
	if err != nil {
		return nil, err
	}

	var key string
	switch kind {
	case FileKindPDF:
		key = song.PDFKey
		song.PDFKey, song.PDFURL = "", ""
	case FileKindAudio:
		key = song.AudioKey
		song.AudioKey, song.AudioURL = "", ""
	default:
		return nil, apperr.ErrValidation.New("unknown file kind %q", kind)
	}
	if key == "" {
		return nil, apperr.ErrNotFound.New("song has no %s file", kind)
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return nil, err
	}
	if err := s.songs.UpdateSong(ctx, song); err != nil {
		return nil, err
	}
	return song, nil
}
