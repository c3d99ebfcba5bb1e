// Package query turns song listing criteria into a database-agnostic
// query description and computes pagination metadata.
package query

import (
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// SongFilters are the listing criteria. Categories combine with AND;
// values inside one multi-valued category combine with OR.
type SongFilters struct {
	Search    string
	Tones     []string
	Paces     []string
	Styles    []string
	Tags      []string
	Natures   []string
	HasEvents *bool
}

// IsZero reports whether no filter is active.
func (f SongFilters) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" &&
		len(cleanValues(f.Tones)) == 0 &&
		len(cleanValues(f.Paces)) == 0 &&
		len(cleanValues(f.Styles)) == 0 &&
		len(cleanValues(f.Tags)) == 0 &&
		len(cleanValues(f.Natures)) == 0 &&
		f.HasEvents == nil
}

type Sort struct {
	Field string
	Order string
}

// DefaultSort is used whenever the requested sort is not allowed.
var DefaultSort = Sort{Field: "title", Order: "asc"}

// sortColumns is the allow-list of sortable fields.
var sortColumns = map[string]string{
	"title":          "title",
	"bpm":            "bpm",
	"originalSinger": "original_singer",
	"author":         "author",
}

// Normalize returns s if it names an allowed field, DefaultSort otherwise.
func (s Sort) Normalize() Sort {
	if _, ok := sortColumns[s.Field]; !ok {
		return DefaultSort
	}
	switch strings.ToLower(s.Order) {
	case "desc":
		return Sort{Field: s.Field, Order: "desc"}
	default:
		return Sort{Field: s.Field, Order: "asc"}
	}
}

func (s Sort) orderBy() string {
	s = s.Normalize()
	return sortColumns[s.Field] + " " + strings.ToUpper(s.Order)
}

// Clause is one SQL condition with its bind arguments.
type Clause struct {
	SQL  string
	Args []interface{}
}

type SongQuery struct {
	Where   []Clause
	OrderBy string
	Skip    int
	Take    int
}

// BuildSongQuery translates listing criteria into a SongQuery against
// the songs table. page and pageSize are clamped to at least 1.
func BuildSongQuery(f SongFilters, s Sort, page, pageSize int) SongQuery {
	page = clampPage(page)
	pageSize = clampLimit(pageSize)

	q := SongQuery{
		OrderBy: s.orderBy(),
		Skip:    (page - 1) * pageSize,
		Take:    pageSize,
	}

	if search := strings.TrimSpace(f.Search); search != "" {
		pattern := containsPattern(strings.ToLower(search))
		q.Where = append(q.Where, Clause{
			SQL: "(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(original_singer) LIKE ? ESCAPE '\\' OR LOWER(author) LIKE ? ESCAPE '\\')",
			Args: []interface{}{pattern, pattern, pattern},
		})
	}
	if tones := cleanValues(f.Tones); len(tones) > 0 {
		q.Where = append(q.Where, Clause{SQL: "tone IN ?", Args: []interface{}{tones}})
	}
	if paces := cleanValues(f.Paces); len(paces) > 0 {
		for i := range paces {
			paces[i] = strings.ToUpper(paces[i])
		}
		q.Where = append(q.Where, Clause{SQL: "pace IN ?", Args: []interface{}{paces}})
	}
	if styles := cleanValues(f.Styles); len(styles) > 0 {
		q.Where = append(q.Where, Clause{SQL: "style IN ?", Args: []interface{}{styles}})
	}
	if c, ok := anyContains("tags", f.Tags); ok {
		q.Where = append(q.Where, c)
	}
	if c, ok := anyContains("nature", f.Natures); ok {
		q.Where = append(q.Where, c)
	}
	if f.HasEvents != nil {
		exists := "EXISTS (SELECT 1 FROM event_songs WHERE event_songs.song_id = songs.id)"
		if !*f.HasEvents {
			exists = "NOT " + exists
		}
		q.Where = append(q.Where, Clause{SQL: exists})
	}

	return q
}

// anyContains matches when column contains any of the tokens as a plain
// substring. The column holds a delimited list, but tokens are not
// split-and-compared; "a" matches "ab/c".
func anyContains(column string, tokens []string) (Clause, bool) {
	tokens = cleanValues(tokens)
	if len(tokens) == 0 {
		return Clause{}, false
	}
	parts := make([]string, len(tokens))
	args := make([]interface{}, len(tokens))
	for i, tok := range tokens {
		parts[i] = column + " LIKE ? ESCAPE '\\'"
		args[i] = containsPattern(tok)
	}
	return Clause{SQL: "(" + strings.Join(parts, " OR ") + ")", Args: args}, true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// cleanValues trims, drops blanks and duplicates, keeping first-seen order.
func cleanValues(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
