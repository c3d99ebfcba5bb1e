package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"worship_management/internal/config"
	"worship_management/internal/database/dbtest"
	"worship_management/internal/models"
)

type envelope struct {
	Status          string          `json:"status"`
	Message         string          `json:"message"`
	Data            json.RawMessage `json:"data"`
	MissingColumns  []string        `json:"missingColumns"`
	ExpectedColumns []struct {
		Field string `json:"field"`
	} `json:"expectedColumns"`
}

type harness struct {
	t      *testing.T
	app    *App
	admin  models.User
	singer models.User
	other  models.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:            "test",
		JWTSecret:      "test-secret",
		JWTTTL:         time.Hour,
		OrgTimezone:    "America/Sao_Paulo",
		SuperuserEmail: "root@example.com",
		StorageDriver:  "local",
		StorageDir:     t.TempDir(),
		StorageBaseURL: "/files",
		MaxUploadMB:    1,
	}
	a, err := NewWithDB(cfg, zaptest.NewLogger(t), dbtest.Open(t))
	require.NoError(t, err)

	h := &harness{t: t, app: a}
	ctx := context.Background()
	for _, u := range []struct {
		dst *models.User
		in  models.UserCreate
	}{
		{&h.admin, models.UserCreate{Name: "Admin", Email: "admin@example.com", Password: "secret1", Role: "ADMIN"}},
		{&h.singer, models.UserCreate{Name: "Ana", Email: "ana@example.com", Password: "secret1", DefaultKey: "G"}},
		{&h.other, models.UserCreate{Name: "Bia", Email: "bia@example.com", Password: "secret1"}},
	} {
		user, err := a.Users.CreateUser(ctx, u.in)
		require.NoError(t, err)
		*u.dst = *user
	}
	return h
}

func (h *harness) login(email string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	var auth models.AuthResponse
	h.decode(w, &auth)
	return auth.Token
}

func (h *harness) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.serve(req, token)
}

func (h *harness) upload(path, token, filename string, content []byte) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(h.t, err)
	_, err = fw.Write(content)
	require.NoError(h.t, err)
	require.NoError(h.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.serve(req, token)
}

func (h *harness) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.app.Router.ServeHTTP(w, req)
	return w
}

// decode unwraps the response envelope into data.
func (h *harness) decode(w *httptest.ResponseRecorder, data interface{}) envelope {
	h.t.Helper()
	var env envelope
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(h.t, json.Unmarshal(env.Data, data), w.Body.String())
	}
	return env
}

func songBody(title string) map[string]interface{} {
	return map[string]interface{}{
		"title":          title,
		"tone":           "G",
		"bpm":            72,
		"originalSinger": "Hillsong",
		"author":         "Reuben Morgan",
		"pace":           "MODERATE",
		"style":          "Contemporary",
		"tags":           "hope/faith",
		"nature":         "worship",
	}
}

func (h *harness) createSong(token, title string) models.Song {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/songs", token, songBody(title))
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	var song models.Song
	h.decode(w, &song)
	return song
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestAuth(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	token := h.login("ana@example.com")
	w = h.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	h.decode(w, &me)
	assert.Equal(t, h.singer.ID, me.ID)
	assert.NotContains(t, w.Body.String(), "password")

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/auth/me", "", nil).Code)
}

func TestRoleChecks(t *testing.T) {
	h := newHarness(t)
	singer := h.login("ana@example.com")

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/songs", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/api/songs", singer, songBody("x")).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/api/events", singer, map[string]string{"title": "x"}).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/users", singer, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/songs", singer, nil).Code)
}

func TestSongEndpoints(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@example.com")
	singer := h.login("ana@example.com")

	w := h.do(http.MethodPost, "/api/songs", admin, map[string]string{"title": "Incomplete"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := h.decode(w, nil)
	assert.Equal(t, "error", env.Status)
	assert.Contains(t, env.Message, "missing required fields")

	for _, title := range []string{"Oceans", "Amazing Grace", "Way Maker"} {
		h.createSong(admin, title)
	}

	w = h.do(http.MethodGet, "/api/songs?limit=2&sortBy=title&sortOrder=desc&tags=faith", singer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Songs []models.Song `json:"songs"`
		Pagination struct {
			TotalCount  int  `json:"totalCount"`
			TotalPages  int  `json:"totalPages"`
			HasNextPage bool `json:"hasNextPage"`
		} `json:"pagination"`
		Filters struct {
			Tags []string `json:"tags"`
		} `json:"filters"`
		Links map[string]string `json:"links"`
	}
	h.decode(w, &page)
	require.Len(t, page.Songs, 2)
	assert.Equal(t, "Way Maker", page.Songs[0].Title)
	assert.Equal(t, 3, page.Pagination.TotalCount)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasNextPage)
	assert.Equal(t, []string{"faith", "hope"}, page.Filters.Tags)
	assert.Contains(t, page.Links["next"], "page=2")
	require.Len(t, page.Songs[0].MatchingSingers, 1)
	assert.Equal(t, "Ana", page.Songs[0].MatchingSingers[0].Name)

	id := page.Songs[0].ID
	body := songBody("Way Maker")
	body["bpm"] = "68-70"
	w = h.do(http.MethodPut, "/api/songs/"+id, admin, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/api/songs/"+id, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/api/songs/"+id, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/songs/"+id, singer, nil).Code)
}

func TestAdaptationEndpoints(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@example.com")
	singer := h.login("ana@example.com")
	song := h.createSong(admin, "Oceans")
	path := "/api/songs/" + song.ID + "/adaptations"

	w := h.do(http.MethodPost, path, singer, map[string]string{"singerId": h.singer.ID, "key": "D"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = h.do(http.MethodPost, path, singer, map[string]string{"singerId": h.singer.ID, "key": "E"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodPost, path, singer, map[string]string{"singerId": h.other.ID, "key": "D"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = h.do(http.MethodPost, path, admin, map[string]string{"singerId": h.other.ID, "key": "Am"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = h.do(http.MethodPut, path+"/"+h.singer.ID, singer, map[string]string{"key": "C#"})
	require.Equal(t, http.StatusOK, w.Code)
	var a models.SongAdaptation
	h.decode(w, &a)
	assert.Equal(t, models.KeyCSharp, a.Key)

	w = h.do(http.MethodGet, path, singer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.SongAdaptation
	h.decode(w, &list)
	assert.Len(t, list, 2)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, path+"/"+h.other.ID, singer, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, path+"/"+h.singer.ID, singer, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, path+"/"+h.singer.ID, admin, nil).Code)
}

func TestEventEndpoints(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@example.com")
	singer := h.login("ana@example.com")
	a := h.createSong(admin, "A")
	b := h.createSong(admin, "B")

	w := h.do(http.MethodPost, "/api/events", admin, map[string]interface{}{
		"title":   "Culto",
		"date":    "2024-03-31T19:00:00-03:00",
		"songIds": []string{b.ID, a.ID},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var event models.Event
	h.decode(w, &event)
	require.Len(t, event.Songs, 2)
	assert.Equal(t, b.ID, event.Songs[0].SongID)

	w = h.do(http.MethodGet, "/api/events?year=2024&month=3", singer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var month struct {
		Events []models.Event `json:"events"`
	}
	h.decode(w, &month)
	assert.Len(t, month.Events, 1)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/events?year=2024&month=13", singer, nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/events?month=march", singer, nil).Code)

	w = h.do(http.MethodGet, "/api/events/calendar?year=2024&month=3", singer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"date":"2024-03-31"`)

	w = h.do(http.MethodPut, "/api/events/"+event.ID, admin, map[string]interface{}{"songIds": []string{"ghost"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = h.do(http.MethodPut, "/api/events/"+event.ID, admin, map[string]interface{}{"songIds": []string{a.ID}})
	require.Equal(t, http.StatusOK, w.Code)
	h.decode(w, &event)
	require.Len(t, event.Songs, 1)

	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/api/events/"+event.ID, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/events/"+event.ID, singer, nil).Code)
}

func xlsx(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestImportEndpoints(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@example.com")

	w := h.do(http.MethodGet, "/api/songs/import/template", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "songs-template.xlsx")
	template := w.Body.Bytes()

	w = h.upload("/api/songs/import", admin, "songs.xlsx", template)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Results struct {
			TotalRows int      `json:"totalRows"`
			Success   int      `json:"success"`
			Skipped   int      `json:"skipped"`
			Errors    []string `json:"errors"`
		} `json:"results"`
	}
	h.decode(w, &res)
	assert.Equal(t, 1, res.Results.Success)
	assert.Empty(t, res.Results.Errors)

	w = h.upload("/api/songs/import", admin, "songs.xlsx", xlsx(t,
		[]interface{}{"Title", "Tempo", "Singer", "Style", "Tags", "Nature"},
		[]interface{}{"X", 60, "s", "st", "t", "n"},
	))
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := h.decode(w, nil)
	assert.Equal(t, []string{"author"}, env.MissingColumns)
	assert.NotEmpty(t, env.ExpectedColumns)

	w = h.upload("/api/songs/import", admin, "songs.csv", []byte("title,bpm\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = h.upload("/api/songs/import", admin, "songs.xlsx", []byte("plain text, not a workbook"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	singer := h.login("ana@example.com")
	w = h.upload("/api/songs/import", singer, "songs.xlsx", template)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestFileEndpoints(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@example.com")
	song := h.createSong(admin, "Oceans")
	path := "/api/songs/" + song.ID + "/files/pdf"

	w := h.upload(path, admin, "chart.pdf", []byte("%PDF-1.4 chart"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Song
	h.decode(w, &updated)
	assert.Equal(t, "/files/songs/"+song.ID+"/pdf.pdf", updated.PDFURL)

	w = h.do(http.MethodGet, updated.PDFURL, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4 chart", w.Body.String())

	w = h.upload("/api/songs/"+song.ID+"/files/audio", admin, "chart.pdf", []byte("%PDF-1.4 chart"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.upload(path, admin, "big.pdf", append([]byte("%PDF-1.4"), make([]byte, 2<<20)...))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, path, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, path, admin, nil).Code)
}

func TestUserEndpoints(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@example.com")
	singer := h.login("ana@example.com")

	w := h.do(http.MethodGet, "/api/users/singers", singer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var singers []models.User
	h.decode(w, &singers)
	assert.Len(t, singers, 3)

	w = h.do(http.MethodPost, "/api/users", admin, map[string]string{"name": "Caio", "email": "caio@example.com", "password": "secret1", "defaultKey": "Em"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.User
	h.decode(w, &created)

	w = h.do(http.MethodPost, "/api/users", admin, map[string]string{"name": "Caio", "email": "caio@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodPut, "/api/users/"+created.ID, admin, map[string]string{"defaultKey": "Q"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = h.do(http.MethodPut, "/api/users/"+created.ID, admin, map[string]string{"name": "Caio S."})
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/api/users/"+created.ID, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/api/users/"+created.ID, admin, nil).Code)
}
