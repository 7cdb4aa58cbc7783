// Package curriculum exposes the static topic/lesson table the learning map is built from.
package curriculum

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"vietlingo/models"
)

//go:embed curriculum.yaml
var curriculumYAML []byte

type Lesson struct {
	ID     int      `yaml:"id" json:"id"`
	Title  string   `yaml:"title" json:"title"`
	Review bool     `yaml:"review" json:"isReview"`
	Story  string   `yaml:"story" json:"storyTitle,omitempty"`
	Sounds []string `yaml:"sounds" json:"sounds"`
}

type Topic struct {
	ID      int      `yaml:"id" json:"id"`
	Name    string   `yaml:"name" json:"name"`
	NameEn  string   `yaml:"nameEn" json:"nameEn"`
	Color   string   `yaml:"color" json:"color"`
	Lessons []Lesson `yaml:"lessons" json:"lessons"`
}

type Curriculum struct {
	Title   string  `yaml:"title" json:"title"`
	TitleEn string  `yaml:"titleEn" json:"titleEn"`
	Topics  []Topic `yaml:"topics" json:"topics"`
}

var (
	defaultOnce sync.Once
	defaultCur  *Curriculum
	defaultErr  error
)

// Default returns the embedded curriculum, parsed once.
func Default() (*Curriculum, error) {
	defaultOnce.Do(func() {
		defaultCur, defaultErr = Load()
	})
	return defaultCur, defaultErr
}

// Load parses the embedded curriculum.
func Load() (*Curriculum, error) {
	return Parse(curriculumYAML)
}

// MustDefault is Default for callers that cannot continue without the table.
func MustDefault() *Curriculum {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes and validates a curriculum document.
func Parse(data []byte) (*Curriculum, error) {
	var c Curriculum
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse curriculum: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that topic ids run 1..n and every topic has exactly five lessons with the
// review lesson last.
func (c *Curriculum) Validate() error {
	if len(c.Topics) == 0 {
		return fmt.Errorf("curriculum has no topics")
	}
	for i, t := range c.Topics {
		if t.ID != i+1 {
			return fmt.Errorf("topic at position %d has id %d", i+1, t.ID)
		}
		if len(t.Lessons) != models.LessonsPerTopic {
			return fmt.Errorf("topic %d has %d lessons, want %d", t.ID, len(t.Lessons), models.LessonsPerTopic)
		}
		for j, l := range t.Lessons {
			if l.ID != j+1 {
				return fmt.Errorf("topic %d lesson at position %d has id %d", t.ID, j+1, l.ID)
			}
			if l.Review != (l.ID == models.ReviewLessonID) {
				return fmt.Errorf("topic %d lesson %d: review flag must be set only on lesson %d", t.ID, l.ID, models.ReviewLessonID)
			}
		}
	}
	return nil
}

// Topic returns the topic with id, or false.
func (c *Curriculum) Topic(id int) (Topic, bool) {
	if id < 1 || id > len(c.Topics) {
		return Topic{}, false
	}
	return c.Topics[id-1], true
}

// Lesson returns lesson lessonID of topic topicID, or false.
func (c *Curriculum) Lesson(topicID, lessonID int) (Lesson, bool) {
	t, ok := c.Topic(topicID)
	if !ok || lessonID < 1 || lessonID > len(t.Lessons) {
		return Lesson{}, false
	}
	return t.Lessons[lessonID-1], true
}

// ReviewLessonID returns the id of the review lesson of topicID.
func (c *Curriculum) ReviewLessonID(topicID int) int {
	if t, ok := c.Topic(topicID); ok {
		for _, l := range t.Lessons {
			if l.Review {
				return l.ID
			}
		}
	}
	return models.ReviewLessonID
}

// IsReview reports whether (topicID, lessonID) is a review lesson.
func (c *Curriculum) IsReview(topicID, lessonID int) bool {
	return lessonID == c.ReviewLessonID(topicID)
}

// TotalLessons is the number of lessons in topicID.
func (c *Curriculum) TotalLessons(topicID int) int {
	if t, ok := c.Topic(topicID); ok {
		return len(t.Lessons)
	}
	return models.LessonsPerTopic
}
