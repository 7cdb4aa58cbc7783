package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"vietlingo/logger"
	"vietlingo/models"
	"vietlingo/repository"
)

// Profile is the learner's account with their experience headline.
type Profile struct {
	User       *models.User             `json:"user"`
	Experience *models.ExperienceRecord `json:"experience"`
}

func (a *Auth) user(ctx context.Context, learnerID string) (*models.User, error) {
	user, err := a.users.FindByID(ctx, learnerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnknownLearner
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (a *Auth) Profile(ctx context.Context, learnerID string) (*Profile, error) {
	user, err := a.user(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	rec, err := a.ledger.Get(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Experience: rec}, nil
}

// UpdateProfile renames the learner. The leaderboard shows the new name on its next build.
func (a *Auth) UpdateProfile(ctx context.Context, learnerID, fullname string) (*models.User, error) {
	fullname = strings.TrimSpace(fullname)
	if fullname == "" {
		return nil, ErrInvalidPatch
	}
	user, err := a.user(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	user.Fullname = fullname
	user.UpdatedAt = a.opts.now()
	if err := a.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	a.ledger.invalidateLeaderboard(ctx)
	return user, nil
}

func (a *Auth) ChangePassword(ctx context.Context, learnerID, current, next string) error {
	user, err := a.user(ctx, learnerID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), a.saltRound)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.Password = string(hashed)
	user.UpdatedAt = a.opts.now()
	if err := a.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	logger.Log.Info("password changed", zap.String("learnerId", learnerID))
	return nil
}
