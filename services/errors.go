package services

import "errors"

var (
	ErrInvalidAmount      = errors.New("amount must be a positive number")
	ErrInvalidTopic       = errors.New("invalid topic id")
	ErrInvalidLesson      = errors.New("invalid lesson id")
	ErrInvalidScore       = errors.New("score must not be negative")
	ErrInvalidPatch       = errors.New("invalid update")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountBlocked     = errors.New("account is temporarily blocked")
	ErrUnknownLearner     = errors.New("learner not found")
	ErrWrongPassword      = errors.New("current password is incorrect")
)
