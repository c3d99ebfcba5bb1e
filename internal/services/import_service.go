package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"worship_management/internal/apperr"
	"worship_management/internal/models"
	"worship_management/internal/repository"
)

// ImportColumn is a canonical song field and the header spellings that
// map onto it. The first synonym is the header used in the template.
type ImportColumn struct {
	Field    string   `json:"field"`
	Synonyms []string `json:"synonyms"`
	Required bool     `json:"required"`
}

// ImportColumns is matched in order; within a column the first matching
// synonym wins.
var ImportColumns = []ImportColumn{
	{Field: "title", Required: true, Synonyms: []string{"title", "titulo", "título", "song", "song title", "nome", "música", "musica"}},
	{Field: "bpm", Required: true, Synonyms: []string{"bpm", "tempo", "beats per minute", "batidas por minuto"}},
	{Field: "originalSinger", Required: true, Synonyms: []string{"original singer", "originalsinger", "singer", "artist", "cantor", "cantor original", "intérprete", "interprete"}},
	{Field: "author", Required: true, Synonyms: []string{"author", "composer", "writer", "autor", "compositor"}},
	{Field: "style", Required: true, Synonyms: []string{"style", "genre", "estilo", "gênero", "genero"}},
	{Field: "tags", Required: true, Synonyms: []string{"tags", "tag", "keywords", "palavras-chave", "marcadores"}},
	{Field: "nature", Required: true, Synonyms: []string{"nature", "natureza", "type", "tipo"}},
	{Field: "lyrics", Synonyms: []string{"lyrics", "letra", "letras"}},
	{Field: "tone", Synonyms: []string{"tone", "key", "tom", "tonalidade"}},
	{Field: "pace", Synonyms: []string{"pace", "speed", "andamento", "ritmo", "velocidade"}},
}

var templateExample = map[string]string{
	"title":          "Amazing Grace",
	"bpm":            "72",
	"originalSinger": "Chris Tomlin",
	"author":         "John Newton",
	"style":          "Hymn",
	"tags":           "grace,classic",
	"nature":         "Adoration, Worship",
	"lyrics":         "Amazing grace, how sweet the sound",
	"tone":           "G",
	"pace":           "SLOW",
}

// MissingColumnsError rejects a spreadsheet whose header row lacks some
// required fields.
type MissingColumnsError struct {
	Missing  []string
	Expected []ImportColumn
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// ImportResult reports what happened to each data row. Errors holds one
// message per rejected row.
type ImportResult struct {
	TotalRows int      `json:"totalRows"`
	Success   int      `json:"success"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

type ImportService struct {
	songs repository.SongRepository
	log   *zap.Logger
}

func NewImportService(songs repository.SongRepository, log *zap.Logger) *ImportService {
	return &ImportService{songs: songs, log: log}
}

// MapHeaders returns the column index of each canonical field found in
// headers. Unrecognized headers are ignored, as are repeats of a field
// already mapped.
func MapHeaders(headers []string) map[string]int {
	mapped := map[string]int{}
	for _, col := range ImportColumns {
		for _, syn := range col.Synonyms {
			if idx := indexOfHeader(headers, syn); idx >= 0 {
				mapped[col.Field] = idx
				break
			}
		}
	}
	return mapped
}

func indexOfHeader(headers []string, name string) int {
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// ImportSongs reads the first sheet of an xlsx workbook and inserts every
// valid row whose title is not already in the library. Only file-level
// problems are returned as errors.
func (s *ImportService) ImportSongs(ctx context.Context, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperr.ErrValidation.New("could not read spreadsheet: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.ErrValidation.New("spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperr.ErrValidation.New("could not read sheet %q: %v", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, apperr.ErrValidation.Wrap(&MissingColumnsError{Missing: requiredFields(), Expected: ImportColumns})
	}

	columns := MapHeaders(rows[0])
	var missing []string
	for _, col := range ImportColumns {
		if _, ok := columns[col.Field]; col.Required && !ok {
			missing = append(missing, col.Field)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.ErrValidation.Wrap(&MissingColumnsError{Missing: missing, Expected: ImportColumns})
	}

	result := &ImportResult{Errors: []string{}}
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.TotalRows++
		rowNum := i + 2
		s.importRow(ctx, result, rowNum, rowValues(row, columns))
	}

	s.log.Info("songs imported",
		zap.String("sheet", sheets[0]),
		zap.Int("total", result.TotalRows),
		zap.Int("success", result.Success),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

func (s *ImportService) importRow(ctx context.Context, result *ImportResult, rowNum int, values map[string]string) {
	var missing []string
	for _, col := range ImportColumns {
		if col.Required && values[col.Field] == "" {
			missing = append(missing, col.Field)
		}
	}
	if len(missing) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: missing required fields: %s", rowNum, strings.Join(missing, ", ")))
		return
	}

	in := models.SongInput{
		Title:          values["title"],
		Tone:           values["tone"],
		BPM:            models.FlexString(values["bpm"]),
		OriginalSinger: values["originalSinger"],
		Author:         values["author"],
		Pace:           values["pace"],
		Style:          values["style"],
		Tags:           values["tags"],
		Nature:         values["nature"],
	}
	if in.Tone == "" {
		in.Tone = string(models.KeyC)
	}
	if in.Pace == "" {
		in.Pace = string(models.PaceModerate)
	}
	if lyrics := values["lyrics"]; lyrics != "" {
		in.Lyrics = &lyrics
	}

	song, err := songFromInput(in)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", rowNum, apperr.Message(err)))
		return
	}

	exists, err := s.songs.ExistsByTitle(ctx, song.Title)
	if err != nil {
		s.log.Error("import duplicate check failed", zap.Int("row", rowNum), zap.Error(err))
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: could not be saved", rowNum))
		return
	}
	if exists {
		result.Skipped++
		return
	}

	if err := s.songs.CreateSong(ctx, &song); err != nil {
		s.log.Error("import insert failed", zap.Int("row", rowNum), zap.Error(err))
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: could not be saved", rowNum))
		return
	}
	result.Success++
}

func rowValues(row []string, columns map[string]int) map[string]string {
	values := make(map[string]string, len(columns))
	for field, idx := range columns {
		if idx < len(row) {
			values[field] = strings.TrimSpace(row[idx])
		}
	}
	return values
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func requiredFields() []string {
	var out []string
	for _, col := range ImportColumns {
		if col.Required {
			out = append(out, col.Field)
		}
	}
	return out
}

// ImportTemplate builds a workbook with the canonical header row and one
// example song.
func ImportTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Songs"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	headers := make([]interface{}, len(ImportColumns))
	example := make([]interface{}, len(ImportColumns))
	for i, col := range ImportColumns {
		headers[i] = col.Synonyms[0]
		example[i] = templateExample[col.Field]
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A2", &example); err != nil {
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	last, err := excelize.CoordinatesToCellName(len(ImportColumns), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
