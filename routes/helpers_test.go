package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

// smallGIF is a valid 2x1 gif.
var smallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

type testEnv struct {
	t         *testing.T
	db        *gorm.DB
	router    *gin.Engine
	redis     *miniredis.Miniredis
	mediaRoot string
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type pageBody struct {
	PageObj struct {
		Items       []models.Post `json:"items"`
		Number      int           `json:"number"`
		NumPages    int           `json:"num_pages"`
		Total       int64         `json:"total"`
		HasNext     bool          `json:"has_next"`
		HasPrevious bool          `json:"has_previous"`
	} `json:"page_obj"`
}

type formBody struct {
	Form struct {
		Fields []struct {
			Name     string `json:"name"`
			Required bool   `json:"required"`
			Choices  []struct {
				Value string `json:"value"`
				Label string `json:"label"`
			} `json:"choices"`
		} `json:"fields"`
		Values map[string]any    `json:"values"`
		Errors map[string]string `json:"errors"`
		Extra  map[string]any    `json:"extra"`
	} `json:"form"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	config.Set(config.AppConfig{
		JWTSecret:            "test-secret",
		GinMode:              "test",
		GinPath:              filepath.Join(dir, "gin.log"),
		DBDriver:             "sqlite",
		DatabaseURI:          "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel:             "silent",
		RateLimitPerMinute:   6000,
		MediaRoot:            filepath.Join(dir, "media"),
		SignupCooldownSec:    -1,
		SignupMaxPerIPPerDay: -1,
	})

	db, err := config.OpenDatabase(config.Get())
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	utils.SetRedis(rc)
	t.Cleanup(func() {
		utils.SetRedis(nil)
		_ = rc.Close()
	})

	return &testEnv{
		t:         t,
		db:        db,
		router:    SetupRouter(db),
		redis:     mr,
		mediaRoot: config.Get().MediaRoot,
	}
}

func (e *testEnv) user(username string) *models.User {
	e.t.Helper()
	hash, err := utils.HashPassword("password")
	require.NoError(e.t, err)
	u := &models.User{Username: username, PasswordHash: hash}
	require.NoError(e.t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) group(title, slug string) *models.Group {
	e.t.Helper()
	g := &models.Group{Title: title, Slug: slug, Description: "Тестовое описание"}
	require.NoError(e.t, e.db.Create(g).Error)
	return g
}

func (e *testEnv) post(author *models.User, text string, group *models.Group) *models.Post {
	e.t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(e.t, e.db.Create(p).Error)
	return p
}

// posts creates n posts with strictly increasing publication dates.
func (e *testEnv) posts(author *models.User, n int, group *models.Group) {
	e.t.Helper()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		p := &models.Post{Text: fmt.Sprintf("Пост номер %d", i), AuthorID: author.ID, PubDate: base.Add(time.Duration(i) * time.Second)}
		if group != nil {
			p.GroupID = &group.ID
		}
		require.NoError(e.t, e.db.Create(p).Error)
	}
}

func (e *testEnv) token(u *models.User) string {
	e.t.Helper()
	token, err := utils.GenerateToken(u.ID, u.Username, time.Hour)
	require.NoError(e.t, err)
	return token
}

func (e *testEnv) do(req *http.Request, as *models.User) *httptest.ResponseRecorder {
	e.t.Helper()
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+e.token(as))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) get(path string, as *models.User) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil), as)
}

func (e *testEnv) postForm(path string, values url.Values, as *models.User) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req, as)
}

func (e *testEnv) postMultipart(path string, values map[string]string, fileName string, file []byte, as *models.User) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(e.t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("image", fileName)
		require.NoError(e.t, err)
		_, err = io.Copy(fw, bytes.NewReader(file))
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.do(req, as)
}

// decode unwraps the response envelope into out.
func decode(t *testing.T, w *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func loginURL(next string) string {
	return "/auth/login/?next=" + url.QueryEscape(next)
}

func postPath(p *models.Post, suffix string) string {
	return fmt.Sprintf("/posts/%d/%s", p.ID, suffix)
}
