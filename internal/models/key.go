package models

import "strings"

// Key is a musical key. It is used both for a song's tone and for a
// singer's default or adapted key.
type Key string

const (
	KeyC      Key = "C"
	KeyCSharp Key = "C#"
	KeyDb     Key = "Db"
	KeyD      Key = "D"
	KeyDSharp Key = "D#"
	KeyEb     Key = "Eb"
	KeyE      Key = "E"
	KeyF      Key = "F"
	KeyFSharp Key = "F#"
	KeyGb     Key = "Gb"
	KeyG      Key = "G"
	KeyGSharp Key = "G#"
	KeyAb     Key = "Ab"
	KeyA      Key = "A"
	KeyASharp Key = "A#"
	KeyBb     Key = "Bb"
	KeyB      Key = "B"
	KeyAm     Key = "Am"
	KeyBm     Key = "Bm"
	KeyCm     Key = "Cm"
	KeyDm     Key = "Dm"
	KeyEm     Key = "Em"
)

// Keys lists every accepted key in display order.
var Keys = []Key{
	KeyC, KeyCSharp, KeyDb, KeyD, KeyDSharp, KeyEb, KeyE, KeyF, KeyFSharp,
	KeyGb, KeyG, KeyGSharp, KeyAb, KeyA, KeyASharp, KeyBb, KeyB,
	KeyAm, KeyBm, KeyCm, KeyDm, KeyEm,
}

func (k Key) Valid() bool {
	for _, known := range Keys {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKey accepts the exact spelling or a case-insensitive match of
// the root ("c#" → "C#", "am" → "Am").
func ParseKey(s string) (Key, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if k := Key(s); k.Valid() {
		return k, true
	}
	for _, known := range Keys {
		if strings.EqualFold(string(known), s) {
			return known, true
		}
	}
	return "", false
}

type Pace string

const (
	PaceSlow     Pace = "SLOW"
	PaceModerate Pace = "MODERATE"
	PaceFast     Pace = "FAST"
)

var Paces = []Pace{PaceSlow, PaceModerate, PaceFast}

func (p Pace) Valid() bool {
	return p == PaceSlow || p == PaceModerate || p == PaceFast
}

func ParsePace(s string) (Pace, bool) {
	s = strings.TrimSpace(s)
	for _, known := range Paces {
		if strings.EqualFold(string(known), s) {
			return known, true
		}
	}
	return "", false
}
