// Package player drives a single lesson or review session from the intro screen to the
// completion call.
package player

import (
	"context"
	"errors"
	"sync"

	"vietlingo/curriculum"
	"vietlingo/models"
)

type Step string

const (
	StepIntro       Step = "intro"
	StepVocabulary  Step = "vocab"
	StepGame1       Step = "game1"
	StepGame2       Step = "game2"
	StepGame3       Step = "game3"
	StepSentences   Step = "sentences"
	StepWriting     Step = "writing"
	StepCombination Step = "combination"
	StepStory       Step = "story"
	StepQuiz        Step = "quiz"
	StepPractice    Step = "practice"
	StepComplete    Step = "complete"
)

var (
	StandardSteps = []Step{StepIntro, StepVocabulary, StepGame1, StepGame2, StepGame3, StepSentences, StepWriting, StepComplete}
	ReviewSteps   = []Step{StepIntro, StepCombination, StepStory, StepQuiz, StepPractice, StepWriting, StepComplete}
)

// Points awarded when a question or writing exercise is answered correctly.
const (
	GamePoints         = 10
	QuizPoints         = 15
	PracticePoints     = 10
	WritingBonus       = 20
	ReviewWritingBonus = 30
)

var (
	ErrFinished       = errors.New("session already finished")
	ErrNoQuestion     = errors.New("current step has no open question")
	ErrNoSelection    = errors.New("no answer selected")
	ErrAlreadyChecked = errors.New("question already checked")
	ErrNotChecked     = errors.New("question not checked yet")
	ErrNotWritingStep = errors.New("current step is not a writing step")
)

// Completer persists the result of a finished session.
type Completer interface {
	CompleteLesson(ctx context.Context, topicID, lessonID, score int) error
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, topicID, lessonID, score int) error

func (f CompleterFunc) CompleteLesson(ctx context.Context, topicID, lessonID, score int) error {
	return f(ctx, topicID, lessonID, score)
}

// Question is a single- or multi-select exercise. Points of zero means the step default.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answers []string `json:"answers"`
	Multi   bool     `json:"multi"`
	Points  int      `json:"points,omitempty"`
}

type Feedback struct {
	Correct bool     `json:"correct"`
	Answers []string `json:"answers"`
	Awarded int      `json:"awarded"`
}

type Player struct {
	mu sync.Mutex

	TopicID  int
	LessonID int
	Review   bool

	steps     []Step
	index     int
	questions map[Step][]Question
	qIndex    int
	selected  []string
	feedback  *Feedback
	wrote     bool
	score     int

	completer   Completer
	completed   bool
	completeErr error
}

// New picks the review step sequence for review lessons and the standard one otherwise.
// cur may be nil, in which case lesson 5 is the review lesson.
func New(topicID, lessonID int, cur *curriculum.Curriculum, completer Completer) *Player {
	review := lessonID == models.ReviewLessonID
	if cur != nil {
		review = cur.IsReview(topicID, lessonID)
	}
	p := &Player{
		TopicID:   topicID,
		LessonID:  lessonID,
		Review:    review,
		questions: make(map[Step][]Question),
		completer: completer,
	}
	p.steps = StandardSteps
	if review {
		p.steps = ReviewSteps
	}
	return p
}

// SetQuestions loads the question queue of a question step.
func (p *Player) SetQuestions(step Step, qs []Question) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.questions[step] = qs
}

func (p *Player) Step() Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.steps[p.index]
}

// Steps returns the step sequence of this session.
func (p *Player) Steps() []Step {
	return append([]Step(nil), p.steps...)
}

func (p *Player) Score() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.score
}

// Progress is the share of steps reached, in percent.
func (p *Player) Progress() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return (p.index + 1) * 100 / len(p.steps)
}

// Completed reports whether the completion call has been made.
func (p *Player) Completed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed
}

// Advance moves to the next step. Entering the complete step hands the score to the
// Completer exactly once; its error is returned and kept.
func (p *Player) Advance(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.advance(ctx)
}

func (p *Player) advance(ctx context.Context) error {
	if p.steps[p.index] == StepComplete {
		return ErrFinished
	}
	p.index++
	p.qIndex = 0
	p.selected = nil
	p.feedback = nil
	p.wrote = false

	if p.steps[p.index] != StepComplete || p.completed {
		return nil
	}
	p.completed = true
	if p.completer != nil {
		p.completeErr = p.completer.CompleteLesson(ctx, p.TopicID, p.LessonID, p.score)
	}
	return p.completeErr
}

// Question returns the open question of the current step.
func (p *Player) Question() (Question, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current()
}

// Select toggles option for multi-select questions and replaces the choice otherwise.
func (p *Player) Select(option string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, ok := p.current()
	if !ok {
		return ErrNoQuestion
	}
	if p.feedback != nil {
		return ErrAlreadyChecked
	}
	if !q.Multi {
		p.selected = []string{option}
		return nil
	}
	for i, s := range p.selected {
		if s == option {
			p.selected = append(p.selected[:i], p.selected[i+1:]...)
			return nil
		}
	}
	p.selected = append(p.selected, option)
	return nil
}

func (p *Player) current() (Question, bool) {
	qs := p.questions[p.steps[p.index]]
	if p.qIndex >= len(qs) {
		return Question{}, false
	}
	return qs[p.qIndex], true
}

// Check grades the selection: an exact set match for multi-select questions, an exact
// value match otherwise. A correct answer adds the question's points.
func (p *Player) Check() (Feedback, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	q, ok := p.current()
	if !ok {
		return Feedback{}, ErrNoQuestion
	}
	if p.feedback != nil {
		return *p.feedback, ErrAlreadyChecked
	}
	if len(p.selected) == 0 {
		return Feedback{}, ErrNoSelection
	}

	fb := Feedback{Answers: q.Answers, Correct: sameSet(p.selected, q.Answers)}
	if !q.Multi {
		fb.Correct = len(q.Answers) > 0 && p.selected[0] == q.Answers[0]
	}
	if fb.Correct {
		fb.Awarded = p.pointsFor(q)
		p.score += fb.Awarded
	}
	p.feedback = &fb
	return fb, nil
}

func (p *Player) pointsFor(q Question) int {
	if q.Points > 0 {
		return q.Points
	}
	switch p.steps[p.index] {
	case StepQuiz:
		return QuizPoints
	case StepPractice:
		return PracticePoints
	}
	return GamePoints
}

// Next moves to the next question, or to the next step after the last one.
func (p *Player) Next(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.current(); !ok {
		return ErrNoQuestion
	}
	if p.feedback == nil {
		return ErrNotChecked
	}
	p.selected = nil
	p.feedback = nil
	p.qIndex++
	if p.qIndex < len(p.questions[p.steps[p.index]]) {
		return nil
	}
	return p.advance(ctx)
}

// RecordWriting adds the writing bonus once per writing step when the drawing matched.
func (p *Player) RecordWriting(matched bool) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.steps[p.index] != StepWriting {
		return 0, ErrNotWritingStep
	}
	if !matched || p.wrote || p.completed {
		return 0, nil
	}
	p.wrote = true
	bonus := WritingBonus
	if p.Review {
		bonus = ReviewWritingBonus
	}
	p.score += bonus
	return bonus, nil
}

// Reset starts the session over. A completion already reported is not reported again
// unless the session is replayed to the end.
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.index = 0
	p.qIndex = 0
	p.selected = nil
	p.feedback = nil
	p.wrote = false
	p.score = 0
	p.completed = false
	p.completeErr = nil
}

func sameSet(a, b []string) bool {
	as := make(map[string]bool, len(a))
	for _, v := range a {
		as[v] = true
	}
	bs := make(map[string]bool, len(b))
	for _, v := range b {
		bs[v] = true
	}
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if !bs[v] {
			return false
		}
	}
	return true
}
