package player

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vietlingo/curriculum"
)

type recordingCompleter struct {
	calls  int
	scores []int
	err    error
}

func (r *recordingCompleter) CompleteLesson(_ context.Context, _, _, score int) error {
	r.calls++
	r.scores = append(r.scores, score)
	return r.err
}

func advanceTo(t *testing.T, p *Player, step Step) {
	t.Helper()
	for p.Step() != step {
		require.NoError(t, p.Advance(context.Background()))
	}
}

func TestNewSelectsSequenceByLesson(t *testing.T) {
	cur := curriculum.MustDefault()

	assert.Equal(t, StandardSteps, New(1, 1, cur, nil).Steps())
	review := New(1, 5, cur, nil)
	assert.True(t, review.Review)
	assert.Equal(t, ReviewSteps, review.Steps())
	assert.True(t, New(3, 5, nil, nil).Review)
}

func TestStandardLessonScoresAndCompletesOnce(t *testing.T) {
	ctx := context.Background()
	c := &recordingCompleter{}
	p := New(1, 2, nil, c)
	p.SetQuestions(StepGame1, []Question{
		{Prompt: "Chọn âm b", Options: []string{"b", "d"}, Answers: []string{"b"}},
		{Prompt: "Chọn chữ có âm c", Options: []string{"cá", "bà", "cò"}, Answers: []string{"cá", "cò"}, Multi: true},
	})

	advanceTo(t, p, StepGame1)

	require.NoError(t, p.Select("b"))
	fb, err := p.Check()
	require.NoError(t, err)
	assert.True(t, fb.Correct)
	assert.Equal(t, GamePoints, fb.Awarded)
	_, err = p.Check()
	assert.ErrorIs(t, err, ErrAlreadyChecked)
	require.NoError(t, p.Next(ctx))

	require.NoError(t, p.Select("cò"))
	require.NoError(t, p.Select("bà"))
	require.NoError(t, p.Select("bà"))
	require.NoError(t, p.Select("cá"))
	fb, err = p.Check()
	require.NoError(t, err)
	assert.True(t, fb.Correct)
	require.NoError(t, p.Next(ctx))

	assert.Equal(t, StepGame2, p.Step())
	assert.Equal(t, 20, p.Score())

	advanceTo(t, p, StepWriting)
	bonus, err := p.RecordWriting(true)
	require.NoError(t, err)
	assert.Equal(t, WritingBonus, bonus)
	bonus, _ = p.RecordWriting(true)
	assert.Zero(t, bonus)

	require.NoError(t, p.Advance(ctx))
	assert.Equal(t, StepComplete, p.Step())
	assert.True(t, p.Completed())
	assert.ErrorIs(t, p.Advance(ctx), ErrFinished)

	assert.Equal(t, 1, c.calls)
	assert.Equal(t, []int{40}, c.scores)
	assert.Equal(t, 100, p.Progress())
}

func TestWrongAnswerScoresNothing(t *testing.T) {
	p := New(1, 1, nil, nil)
	p.SetQuestions(StepGame1, []Question{
		{Options: []string{"a", "b"}, Answers: []string{"a", "b"}, Multi: true},
	})
	advanceTo(t, p, StepGame1)

	_, err := p.Check()
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.ErrorIs(t, p.Next(context.Background()), ErrNotChecked)

	require.NoError(t, p.Select("a"))
	fb, err := p.Check()
	require.NoError(t, err)
	assert.False(t, fb.Correct)
	assert.Zero(t, p.Score())
}

func TestReviewSessionPoints(t *testing.T) {
	ctx := context.Background()
	c := &recordingCompleter{}
	p := New(2, 5, curriculum.MustDefault(), c)
	p.SetQuestions(StepQuiz, []Question{{Options: []string{"bà", "bé"}, Answers: []string{"bà"}}})
	p.SetQuestions(StepPractice, []Question{{Options: []string{"ba", "bà"}, Answers: []string{"ba"}}})

	advanceTo(t, p, StepQuiz)
	require.NoError(t, p.Select("bà"))
	fb, err := p.Check()
	require.NoError(t, err)
	assert.Equal(t, QuizPoints, fb.Awarded)
	require.NoError(t, p.Next(ctx))

	assert.Equal(t, StepPractice, p.Step())
	require.NoError(t, p.Select("ba"))
	fb, err = p.Check()
	require.NoError(t, err)
	assert.Equal(t, PracticePoints, fb.Awarded)
	require.NoError(t, p.Next(ctx))

	assert.Equal(t, StepWriting, p.Step())
	bonus, err := p.RecordWriting(true)
	require.NoError(t, err)
	assert.Equal(t, ReviewWritingBonus, bonus)

	require.NoError(t, p.Advance(ctx))
	assert.Equal(t, []int{55}, c.scores)
}

func TestCompleterErrorIsReportedOnce(t *testing.T) {
	boom := errors.New("network down")
	c := &recordingCompleter{err: boom}
	p := New(1, 1, nil, c)

	var err error
	for p.Step() != StepComplete {
		err = p.Advance(context.Background())
	}
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, p.Advance(context.Background()), ErrFinished)
	assert.Equal(t, 1, c.calls)
}

func TestRecordWritingOutsideWritingStep(t *testing.T) {
	p := New(1, 1, nil, nil)
	_, err := p.RecordWriting(true)
	assert.ErrorIs(t, err, ErrNotWritingStep)
}

func TestResetRestartsSession(t *testing.T) {
	c := &recordingCompleter{}
	p := New(1, 1, nil, c)
	advanceTo(t, p, StepComplete)
	require.Equal(t, 1, c.calls)

	p.Reset()
	assert.Equal(t, StepIntro, p.Step())
	assert.Zero(t, p.Score())
	assert.False(t, p.Completed())

	advanceTo(t, p, StepComplete)
	assert.Equal(t, 2, c.calls)
}
