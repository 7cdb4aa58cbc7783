package services

import (
	"context"

	"vietlingo/curriculum"
	"vietlingo/events"
	"vietlingo/ocr"
	"vietlingo/repository"
)

// Services is the set of domain services the HTTP handlers work with.
type Services struct {
	Store      *repository.Store
	Curriculum *curriculum.Curriculum
	Ledger     *Ledger
	Tracker    *Tracker
	Auth       *Auth
	OCR        ocr.Recognizer
	Publisher  events.Publisher
}

// App is the process-wide instance installed by the serve command.
var App *Services

// Deps are the collaborators New wires together.
type Deps struct {
	Store      *repository.Store
	Curriculum *curriculum.Curriculum
	OCR        ocr.Recognizer
	IssueToken TokenIssuer
	SaltRound  int
}

func New(deps Deps, opts ...Option) *Services {
	o := buildOptions(opts)
	ledger := NewLedger(deps.Store.Experience, deps.Store.Users, opts...)
	tracker := NewTracker(deps.Store.Progress, ledger, deps.Curriculum, opts...)
	return &Services{
		Store:      deps.Store,
		Curriculum: deps.Curriculum,
		Ledger:     ledger,
		Tracker:    tracker,
		Auth:       NewAuth(deps.Store.Users, ledger, tracker, deps.IssueToken, deps.SaltRound, opts...),
		OCR:        deps.OCR,
		Publisher:  o.publisher,
	}
}

// Close releases the event publisher and the store.
func (s *Services) Close(ctx context.Context) error {
	if s.Publisher != nil {
		_ = s.Publisher.Close()
	}
	return s.Store.Close(ctx)
}
