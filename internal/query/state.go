package query

import (
	"net/url"
	"strconv"
	"strings"
)

// ListState is the complete state of a song listing: what is filtered,
// how it is sorted, and which page is shown. Every transition other than
// WithPage sends the listing back to page 1, because the old page number
// does not describe the new result set.
type ListState struct {
	Filters SongFilters
	Sort    Sort
	Page    int
	Limit   int
}

func NewListState() ListState {
	return ListState{Sort: DefaultSort, Page: DefaultPage, Limit: DefaultLimit}
}

func (s ListState) WithFilters(f SongFilters) ListState {
	s.Filters = f
	s.Page = 1
	return s
}

func (s ListState) WithSort(sort Sort) ListState {
	s.Sort = sort.Normalize()
	s.Page = 1
	return s
}

func (s ListState) WithLimit(limit int) ListState {
	s.Limit = clampLimit(limit)
	s.Page = 1
	return s
}

func (s ListState) WithPage(page int) ListState {
	s.Page = clampPage(page)
	return s
}

// Query builds the SongQuery for this state.
func (s ListState) Query() SongQuery {
	return BuildSongQuery(s.Filters, s.Sort, s.Page, s.Limit)
}

// ParseListState reads listing parameters from a URL query. List
// parameters may be repeated, suffixed with [] or comma-separated.
func ParseListState(v url.Values) ListState {
	s := NewListState()
	s.Filters = SongFilters{
		Search:  strings.TrimSpace(v.Get("search")),
		Tones:   listParam(v, "tones"),
		Paces:   listParam(v, "paces"),
		Styles:  listParam(v, "styles"),
		Tags:    listParam(v, "tags"),
		Natures: listParam(v, "natures"),
	}
	if b, err := strconv.ParseBool(strings.TrimSpace(v.Get("hasEvents"))); err == nil {
		s.Filters.HasEvents = &b
	}
	s.Sort = Sort{Field: v.Get("sortBy"), Order: v.Get("sortOrder")}.Normalize()
	s.Page = ParsePage(v.Get("page"))
	s.Limit = ParseLimit(v.Get("limit"))
	return s
}

// Values encodes the state back into query parameters, omitting
// defaults.
func (s ListState) Values() url.Values {
	v := url.Values{}
	if s.Filters.Search != "" {
		v.Set("search", s.Filters.Search)
	}
	setList(v, "tones", s.Filters.Tones)
	setList(v, "paces", s.Filters.Paces)
	setList(v, "styles", s.Filters.Styles)
	setList(v, "tags", s.Filters.Tags)
	setList(v, "natures", s.Filters.Natures)
	if s.Filters.HasEvents != nil {
		v.Set("hasEvents", strconv.FormatBool(*s.Filters.HasEvents))
	}
	if sort := s.Sort.Normalize(); sort != DefaultSort {
		v.Set("sortBy", sort.Field)
		v.Set("sortOrder", sort.Order)
	}
	if s.Page > 1 {
		v.Set("page", strconv.Itoa(s.Page))
	}
	if s.Limit != DefaultLimit {
		v.Set("limit", strconv.Itoa(clampLimit(s.Limit)))
	}
	return v
}

func listParam(v url.Values, name string) []string {
	var out []string
	for _, raw := range append(v[name], v[name+"[]"]...) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return cleanValues(out)
}

func setList(v url.Values, name string, values []string) {
	if values = cleanValues(values); len(values) > 0 {
		v.Set(name, strings.Join(values, ","))
	}
}
