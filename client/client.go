// Package client is the Go client of the learning API. It keeps the signed-in learner in a
// Session and records finished lessons for the player.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"vietlingo/models"
	"vietlingo/ocr"
	"vietlingo/player"
)

// APIError is a response with success false or a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	LearnerID string `json:"userId"`
	Name      string `json:"name"`
	Points    int    `json:"points"`
	XP        string `json:"xp"`
	Level     int    `json:"level"`
	LevelName string `json:"levelName"`
	Streak    int    `json:"streak"`
}

type CompletionResult struct {
	Progress      *models.ProgressRecord `json:"progress"`
	NewCompletion bool                   `json:"newCompletion"`
	UnlockedTopic int                    `json:"unlockedTopic"`
}

type TopicProgress struct {
	TopicID          int `json:"topicId"`
	CompletedLessons int `json:"completedLessons"`
	TotalLessons     int `json:"totalLessons"`
	Progress         int `json:"progress"`
}

type Recognition struct {
	Text      string           `json:"ocr_text"`
	ModelUsed string           `json:"model_used"`
	Message   string           `json:"message"`
	Match     *ocr.MatchResult `json:"match,omitempty"`
}

type Client struct {
	http    *resty.Client
	session *Session
}

var _ player.Completer = (*Client)(nil)

// New targets baseURL (e.g. "http://localhost:3000/api"). A nil session gets a fresh one.
func New(baseURL string, session *Session, timeout time.Duration) *Client {
	if session == nil {
		session = NewSession()
	}
	c := &Client{session: session}
	c.http = resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			if token := c.session.Token(); token != "" {
				req.SetAuthToken(token)
			}
			return nil
		})
	if timeout > 0 {
		c.http.SetTimeout(timeout)
	}
	return c
}

func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) do(req *resty.Request, method, path string, out interface{}) (string, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", method, path, err)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return "", &APIError{StatusCode: resp.StatusCode(), Message: strings.TrimSpace(string(resp.Body()))}
	}
	if !resp.IsSuccess() || !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode(), Message: env.Message}
		_ = json.Unmarshal(env.Data, &apiErr.Fields)
		return env.Message, apiErr
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return env.Message, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return env.Message, nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

type RegistrationResult struct {
	User     *models.User `json:"user"`
	Warnings []string     `json:"warnings"`
	Partial  bool         `json:"partial"`
}

func (c *Client) Register(ctx context.Context, fullname, email, password string) (*RegistrationResult, error) {
	var out RegistrationResult
	_, err := c.do(c.request(ctx).SetBody(map[string]string{
		"fullname": fullname,
		"email":    email,
		"password": password,
	}), resty.MethodPost, "/auth/register", &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login signs in and fills the session with the token, the learner and their experience.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	_, err := c.do(c.request(ctx).SetBody(map[string]string{
		"email":    email,
		"password": password,
	}), resty.MethodPost, "/auth/login", &out)
	if err != nil {
		return nil, err
	}
	c.session.SetAuth(out.Token, out.User)

	if _, err := c.Experience(ctx); err != nil {
		return out.User, fmt.Errorf("load experience: %w", err)
	}
	return out.User, nil
}

// Logout tells the server and clears the session even when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(c.request(ctx), resty.MethodPost, "/auth/logout", nil)
	c.session.Clear()
	return err
}

func (c *Client) Experience(ctx context.Context) (*models.ExperienceRecord, error) {
	var rec models.ExperienceRecord
	if _, err := c.do(c.request(ctx), resty.MethodGet, "/userExp", &rec); err != nil {
		return nil, err
	}
	c.session.SetExperience(&rec)
	return &rec, nil
}

func (c *Client) AddPoints(ctx context.Context, amount int) (*models.ExperienceRecord, error) {
	var rec models.ExperienceRecord
	_, err := c.do(c.request(ctx).SetBody(map[string]int{"amount": amount}), resty.MethodPost, "/userExp/add", &rec)
	if err != nil {
		return nil, err
	}
	c.session.SetExperience(&rec)
	return &rec, nil
}

func (c *Client) UpdateStreak(ctx context.Context) (int, error) {
	var out struct {
		Streak int `json:"streak"`
	}
	if _, err := c.do(c.request(ctx), resty.MethodPost, "/userExp/streak", &out); err != nil {
		return 0, err
	}
	c.session.update(func(st *SessionState) { st.Streak = out.Streak })
	return out.Streak, nil
}

func (c *Client) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	req := c.request(ctx)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	var out []LeaderboardEntry
	if _, err := c.do(req, resty.MethodGet, "/userExp/leaderboard", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Progress(ctx context.Context) (*models.ProgressRecord, error) {
	var rec models.ProgressRecord
	if _, err := c.do(c.request(ctx), resty.MethodGet, "/userProgress", &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) RecordLesson(ctx context.Context, topicID, lessonID, score int) (*CompletionResult, error) {
	var out CompletionResult
	_, err := c.do(c.request(ctx).SetBody(map[string]int{
		"topicId":  topicID,
		"lessonId": lessonID,
		"score":    score,
	}), resty.MethodPost, "/userProgress/lesson", &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LessonCompleted(ctx context.Context, topicID, lessonID int) (bool, error) {
	var out struct {
		Completed bool `json:"completed"`
	}
	_, err := c.do(c.request(ctx).SetQueryParams(map[string]string{
		"topicId":  strconv.Itoa(topicID),
		"lessonId": strconv.Itoa(lessonID),
	}), resty.MethodGet, "/userProgress/lesson/check", &out)
	return out.Completed, err
}

func (c *Client) TopicProgress(ctx context.Context, topicID int) (*TopicProgress, error) {
	var out TopicProgress
	_, err := c.do(c.request(ctx).SetQueryParam("topicId", strconv.Itoa(topicID)),
		resty.MethodGet, "/userProgress/topic", &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Recognize sends a drawing to /pic/recognize. expected may be empty.
func (c *Client) Recognize(ctx context.Context, image []byte, expected string) (*Recognition, error) {
	req := c.request(ctx).SetFileReader("image", "drawing.png", bytes.NewReader(image))
	if expected != "" {
		req.SetFormData(map[string]string{"expected": expected})
	}
	var out Recognition
	if _, err := c.do(req, resty.MethodPost, "/pic/recognize", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteLesson records the lesson and then awards score as points, the way a finished
// lesson screen does.
func (c *Client) CompleteLesson(ctx context.Context, topicID, lessonID, score int) error {
	if _, err := c.RecordLesson(ctx, topicID, lessonID, score); err != nil {
		return err
	}
	if score > 0 {
		if _, err := c.AddPoints(ctx, score); err != nil {
			return err
		}
	}
	return nil
}
