package services

import (
	"sort"
	"strings"

	"worship_management/internal/models"
)

// ComputeMatchingSingers returns the singers with a usable key for song.
// An adaptation row for the song wins; otherwise a singer matches when
// their default key equals the song's tone. adaptations may hold rows of
// other songs; they are ignored.
func ComputeMatchingSingers(song models.Song, singers []models.User, adaptations []models.SongAdaptation) []models.MatchingSinger {
	adapted := make(map[string]models.Key)
	for _, a := range adaptations {
		if a.SongID == song.ID {
			adapted[a.SingerID] = a.Key
		}
	}

	matches := []models.MatchingSinger{}
	for _, singer := range singers {
		if key, ok := adapted[singer.ID]; ok {
			matches = append(matches, models.MatchingSinger{ID: singer.ID, Name: singer.Name, Key: key})
			continue
		}
		if singer.DefaultKey != nil && *singer.DefaultKey == song.Tone {
			matches = append(matches, models.MatchingSinger{ID: singer.ID, Name: singer.Name, Key: song.Tone})
		}
	}
	return matches
}

// SortMatchingSingersByName orders matches by name, case-insensitively.
func SortMatchingSingersByName(matches []models.MatchingSinger) {
	sort.SliceStable(matches, func(i, j int) bool {
		return strings.ToLower(matches[i].Name) < strings.ToLower(matches[j].Name)
	})
}

// AnnotateMatchingSingers fills MatchingSingers on every song in place.
func AnnotateMatchingSingers(songs []models.Song, singers []models.User, adaptations []models.SongAdaptation) {
	bySong := make(map[string][]models.SongAdaptation)
	for _, a := range adaptations {
		bySong[a.SongID] = append(bySong[a.SongID], a)
	}
	for i := range songs {
		matches := ComputeMatchingSingers(songs[i], singers, bySong[songs[i].ID])
		SortMatchingSingersByName(matches)
		songs[i].MatchingSingers = matches
	}
}
