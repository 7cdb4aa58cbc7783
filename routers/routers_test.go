package routers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"vietlingo/config"
	"vietlingo/curriculum"
	"vietlingo/middleware"
	"vietlingo/ocr"
	"vietlingo/repository"
	"vietlingo/services"
)

type fakeRecognizer struct {
	text      string
	err       error
	calls     int
	lastImage []byte
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ string, image []byte) (*ocr.Result, error) {
	f.calls++
	f.lastImage = image
	if f.err != nil {
		return nil, f.err
	}
	return &ocr.Result{Text: f.text, ModelUsed: "crnn", Message: "ok"}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T) (*fiber.App, *fakeRecognizer) {
	t.Helper()

	cfg := config.FromEnv()
	cfg.JWTKey = "test-secret"
	cfg.UploadDir = filepath.Join(t.TempDir(), "drawings")
	config.AppConfig = cfg

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	store := repository.NewGormStore(db)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	recognizer := &fakeRecognizer{text: "a"}
	services.App = services.New(services.Deps{
		Store:      store,
		Curriculum: curriculum.MustDefault(),
		OCR:        recognizer,
		IssueToken: middleware.GenerateJWT,
		SaltRound:  bcrypt.MinCost,
	}, services.WithLocation(time.UTC))

	app := fiber.New()
	Setup(app)
	return app, recognizer
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func registerAndLogin(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	status, _ := call(t, app, "POST", "/api/auth/register", fiber.Map{
		"fullname": "Lan", "email": email, "password": "secret1",
	}, "")
	require.Equal(t, fiber.StatusCreated, status)

	status, env := call(t, app, "POST", "/api/auth/login", fiber.Map{"email": email, "password": "secret1"}, "")
	require.Equal(t, fiber.StatusOK, status)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)
	return login.Token
}

func imageUpload(t *testing.T, path string, extra map[string]string) *http.Request {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.Black)
	pngBytes := &bytes.Buffer{}
	require.NoError(t, png.Encode(pngBytes, img))

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", "drawing.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes.Bytes())
	require.NoError(t, err)
	for k, v := range extra {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestRegisterAndLogin(t *testing.T) {
	app, _ := newTestApp(t)

	status, env := call(t, app, "POST", "/auth/register", fiber.Map{"fullname": "Lan", "email": "not-an-email", "password": "x"}, "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, string(env.Data), "email")

	token := registerAndLogin(t, app, "lan@example.com")

	status, env = call(t, app, "POST", "/auth/register", fiber.Map{"fullname": "Lan", "email": "LAN@example.com", "password": "secret1"}, "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "Email đã được đăng ký!", env.Message)

	status, env = call(t, app, "POST", "/auth/login", fiber.Map{"email": "lan@example.com", "password": "wrong"}, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, env.Success)

	status, env = call(t, app, "GET", "/auth/login/history", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	var history struct {
		LoginTracking []struct {
			LearnerID string `json:"learnerId"`
		} `json:"loginTracking"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Equal(t, 1, history.Pagination.Total)
	assert.Len(t, history.LoginTracking, 1)

	status, env = call(t, app, "POST", "/auth/logout", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Đăng xuất thành công", env.Message)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	app, _ := newTestApp(t)

	for _, path := range []string{"/userExp", "/api/userProgress", "/userProgress/topic?topicId=1"} {
		status, env := call(t, app, "GET", path, nil, "")
		assert.Equal(t, fiber.StatusUnauthorized, status, path)
		assert.False(t, env.Success)
	}

	status, _ := call(t, app, "GET", "/userExp", nil, "garbage")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestExperienceEndpoints(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerAndLogin(t, app, "minh@example.com")

	status, env := call(t, app, "POST", "/api/userExp/add", fiber.Map{"amount": 0}, token)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Số điểm exp không hợp lệ", env.Message)

	status, env = call(t, app, "POST", "/api/userExp/add", fiber.Map{"amount": 1200}, token)
	require.Equal(t, fiber.StatusOK, status)
	var rec struct {
		Points      int `json:"points"`
		Level       int `json:"level"`
		StreakCount int `json:"streakCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, 1200, rec.Points)
	assert.Equal(t, 2, rec.Level)
	assert.Equal(t, 1, rec.StreakCount)

	status, env = call(t, app, "POST", "/userExp/streak", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"streak":1`)

	status, _ = call(t, app, "PUT", "/userExp", fiber.Map{"streak": -1}, token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, env = call(t, app, "PUT", "/userExp", fiber.Map{"totalWordsLearned": 7}, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"wordsLearnedCount":7`)

	status, env = call(t, app, "GET", "/userExp/leaderboard?limit=abc", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	var board []services.LeaderboardEntry
	require.NoError(t, json.Unmarshal(env.Data, &board))
	require.Len(t, board, 1)
	assert.Equal(t, "Lan", board[0].Name)
	assert.Equal(t, "1,200 XP", board[0].XP)
	assert.Equal(t, 1, board[0].Rank)
}

func TestProgressEndpoints(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerAndLogin(t, app, "hoa@example.com")

	status, env := call(t, app, "POST", "/userProgress/lesson", fiber.Map{"topicId": 1}, token)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Thiếu topicId hoặc lessonId", env.Message)

	status, _ = call(t, app, "POST", "/userProgress/lesson", fiber.Map{"topicId": 1, "lessonId": 9}, token)
	assert.Equal(t, fiber.StatusBadRequest, status)

	var result services.CompletionResult
	for lesson := 1; lesson <= 5; lesson++ {
		status, env = call(t, app, "POST", "/api/userProgress/lesson", fiber.Map{"topicId": 1, "lessonId": lesson, "score": 10}, token)
		require.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "Đã hoàn thành bài học", env.Message)
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.UnlockedTopic)
	assert.True(t, result.Record.IsTopicUnlocked(2))

	status, env = call(t, app, "POST", "/userProgress/lesson", fiber.Map{"topicId": 1, "lessonId": 5, "score": 3}, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Đã cập nhật tiến độ bài học", env.Message)

	status, env = call(t, app, "GET", "/userProgress/lesson/check?topicId=1&lessonId=3", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"completed":true}`, string(env.Data))

	status, env = call(t, app, "GET", "/userProgress/lesson/check?topicId=1", nil, token)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Thiếu topicId hoặc lessonId", env.Message)

	status, env = call(t, app, "GET", "/userProgress/topic?topicId=1", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"topicId":1,"completedLessons":5,"totalLessons":5,"progress":100}`, string(env.Data))

	status, env = call(t, app, "GET", "/userProgress/topic", nil, token)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Thiếu topicId", env.Message)

	status, _ = call(t, app, "PUT", "/userProgress", fiber.Map{"currentTopic": 2}, token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, env = call(t, app, "PUT", "/userProgress", fiber.Map{"totalStudyTime": 42}, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"totalStudyTime":42`)

	// Five new completions counted on the ledger
	status, env = call(t, app, "GET", "/userExp", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"lessonsCompletedCount":5`)
}

func TestPicEndpoints(t *testing.T) {
	app, recognizer := newTestApp(t)

	status, env := call(t, app, "POST", "/pic/upload", nil, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Không có tệp tin được tải lên.", env.Message)

	status, env = send(t, app, imageUpload(t, "/pic/upload", nil))
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Success)
	var uploaded map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &uploaded))
	assert.Equal(t, "a", uploaded["ocr_text"])
	assert.Equal(t, "crnn", uploaded["model_used"])
	assert.True(t, strings.HasPrefix(uploaded["file"], "/uploads/"))

	status, env = send(t, app, imageUpload(t, "/api/pic/recognize", map[string]string{"expected": "A a"}))
	require.Equal(t, fiber.StatusOK, status)
	var recognized struct {
		Text  string          `json:"ocr_text"`
		Match ocr.MatchResult `json:"match"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &recognized))
	assert.True(t, recognized.Match.Matched)
	assert.Equal(t, 2, recognizer.calls)

	decoded, err := png.Decode(bytes.NewReader(recognizer.lastImage))
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())

	recognizer.err = &ocr.ServiceError{StatusCode: 500, Message: "model not loaded"}
	status, env = send(t, app, imageUpload(t, "/pic/upload", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.False(t, env.Success)
	assert.Equal(t, "model not loaded", env.Message)

	recognizer.err = errors.New("connection refused")
	status, env = send(t, app, imageUpload(t, "/pic/recognize", nil))
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "Đã xảy ra lỗi khi tải lên tệp tin.", env.Message)
}

func TestCurriculumAndHealth(t *testing.T) {
	app, _ := newTestApp(t)

	status, env := call(t, app, "GET", "/api/curriculum/topics/2", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	var topic curriculum.Topic
	require.NoError(t, json.Unmarshal(env.Data, &topic))
	assert.Equal(t, 2, topic.ID)
	assert.Len(t, topic.Lessons, 5)

	status, _ = call(t, app, "GET", "/curriculum/topics/99", nil, "")
	assert.Equal(t, fiber.StatusNotFound, status)

	status, env = call(t, app, "GET", "/curriculum", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), "My School")

	status, env = call(t, app, "GET", "/health", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Success)
}

func TestProfileEndpoints(t *testing.T) {
	app, _ := newTestApp(t)
	token := registerAndLogin(t, app, "thu@example.com")

	status, env := call(t, app, "GET", "/user/profile", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	var profile services.Profile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "Lan", profile.User.Fullname)
	assert.Equal(t, 1, profile.Experience.Level)

	status, env = call(t, app, "PUT", "/api/user/profile", fiber.Map{"fullname": "Thu"}, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"fullname":"Thu"`)

	status, env = call(t, app, "PUT", "/user/change/login/password", fiber.Map{
		"currentPassword": "secret1", "newPassword": "secret2", "cnfPassword": "other",
	}, token)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, string(env.Data), "cnfPassword")

	status, _ = call(t, app, "PUT", "/user/change/login/password", fiber.Map{
		"currentPassword": "nope", "newPassword": "secret2", "cnfPassword": "secret2",
	}, token)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = call(t, app, "PUT", "/user/change/login/password", fiber.Map{
		"currentPassword": "secret1", "newPassword": "secret2", "cnfPassword": "secret2",
	}, token)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, "POST", "/auth/login", fiber.Map{"email": "thu@example.com", "password": "secret2"}, "")
	assert.Equal(t, fiber.StatusOK, status)
}
