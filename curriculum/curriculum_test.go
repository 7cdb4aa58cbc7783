package curriculum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCurriculum(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Len(t, c.Topics, 18)
	for _, topic := range c.Topics {
		assert.Len(t, topic.Lessons, 5, "topic %d", topic.ID)
		assert.Equal(t, 5, c.ReviewLessonID(topic.ID))
		assert.True(t, c.IsReview(topic.ID, 5))
		assert.False(t, c.IsReview(topic.ID, 1))
	}

	first, ok := c.Topic(1)
	require.True(t, ok)
	assert.Equal(t, "My School", first.Name)
	assert.Equal(t, []string{"A a"}, first.Lessons[0].Sounds)
}

func TestLessonLookup(t *testing.T) {
	c := MustDefault()

	l, ok := c.Lesson(2, 5)
	require.True(t, ok)
	assert.Equal(t, "Bé và bà", l.Story)

	_, ok = c.Lesson(2, 6)
	assert.False(t, ok)
	_, ok = c.Lesson(19, 1)
	assert.False(t, ok)
}

func TestParseRejectsMalformedTopics(t *testing.T) {
	_, err := Parse([]byte(`
title: x
topics:
  - id: 1
    name: one
    lessons:
      - {id: 1, title: a}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has 1 lessons")

	_, err = Parse([]byte(`
title: x
topics:
  - id: 1
    name: one
    lessons:
      - {id: 1, title: a, review: true}
      - {id: 2, title: b}
      - {id: 3, title: c}
      - {id: 4, title: d}
      - {id: 5, title: e}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "review flag")
}
