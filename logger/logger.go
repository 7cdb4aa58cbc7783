package logger

import (
	"go.uber.org/zap"
)

// Log is the process-wide logger. It stays a no-op until New is called, which keeps
// package tests quiet.
var Log = zap.NewNop()

// New builds a production logger for env "production" and a development logger otherwise,
// and installs it as Log.
func New(env string) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if env == "production" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	Log = l
	return l, nil
}
