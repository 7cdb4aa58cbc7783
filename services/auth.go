package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"vietlingo/events"
	"vietlingo/logger"
	"vietlingo/metrics"
	"vietlingo/models"
	"vietlingo/repository"
)

const (
	maxFailedLogins     = 3
	loginBlockDuration  = 1 * time.Minute
	failedLoginResetAge = 15 * time.Minute
)

// TokenIssuer signs an access token for an authenticated learner.
type TokenIssuer func(user *models.User) (string, error)

type Auth struct {
	users     repository.UserRepository
	ledger    *Ledger
	tracker   *Tracker
	issue     TokenIssuer
	saltRound int
	opts      options
}

func NewAuth(users repository.UserRepository, ledger *Ledger, tracker *Tracker, issue TokenIssuer, saltRound int, opts ...Option) *Auth {
	if saltRound < bcrypt.MinCost {
		saltRound = bcrypt.DefaultCost
	}
	return &Auth{users: users, ledger: ledger, tracker: tracker, issue: issue, saltRound: saltRound, opts: buildOptions(opts)}
}

// RegistrationResult is returned whenever the identity was created. Warnings list the
// dependent records that could not be created; they are created lazily on first access.
type RegistrationResult struct {
	User     *models.User `json:"user"`
	Warnings []string     `json:"warnings,omitempty"`
	Partial  bool         `json:"partial"`
}

type LoginInput struct {
	Email    string
	Password string
	IP       string
	Device   string
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// NormalizeEmail lowercases and trims an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the identity, then its experience and progress records. A failure after
// the identity exists is reported as a warning and never undoes the identity.
func (a *Auth) Register(ctx context.Context, fullname, email, password string) (*RegistrationResult, error) {
	email = NormalizeEmail(email)

	_, err := a.users.FindByEmail(ctx, email)
	if err == nil {
		metrics.Registrations.WithLabelValues("failure").Inc()
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), a.saltRound)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Fullname: strings.TrimSpace(fullname),
		Email:    email,
		Password: string(hashed),
	}
	if err := a.users.Create(ctx, user); err != nil {
		metrics.Registrations.WithLabelValues("failure").Inc()
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	result := &RegistrationResult{User: user}
	if a.ledger != nil {
		if _, err := a.ledger.Get(ctx, user.ID); err != nil {
			logger.Log.Warn("create experience record failed", zap.String("learnerId", user.ID), zap.Error(err))
			result.Warnings = append(result.Warnings, "experience record not created: "+err.Error())
		}
	}
	if a.tracker != nil {
		if _, err := a.tracker.Get(ctx, user.ID); err != nil {
			logger.Log.Warn("create progress record failed", zap.String("learnerId", user.ID), zap.Error(err))
			result.Warnings = append(result.Warnings, "progress record not created: "+err.Error())
		}
	}
	result.Partial = len(result.Warnings) > 0

	status := "success"
	if result.Partial {
		status = "partial"
	}
	metrics.Registrations.WithLabelValues(status).Inc()
	events.Emit(ctx, a.opts.publisher, events.LearnerCreated, map[string]interface{}{
		"learnerId": user.ID, "partial": result.Partial,
	})
	return result, nil
}

// Login verifies the password. Three failures within 15 minutes block the account for a
// minute. Successful logins are tracked with the client's IP and user agent.
func (a *Auth) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	user, err := a.users.FindByEmail(ctx, NormalizeEmail(in.Email))
	if errors.Is(err, repository.ErrNotFound) {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ts := a.opts.now()
	if user.IsBlocked && user.BlockedUntil != nil && user.BlockedUntil.After(ts) {
		metrics.LoginAttempts.WithLabelValues("blocked").Inc()
		return nil, ErrAccountBlocked
	}

	if user.LastFailedLogin != nil && ts.Sub(*user.LastFailedLogin) > failedLoginResetAge {
		user.FailedLoginAttempts = 0
		user.LastFailedLogin = nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		user.FailedLoginAttempts++
		user.LastFailedLogin = &ts
		if user.FailedLoginAttempts >= maxFailedLogins {
			until := ts.Add(loginBlockDuration)
			user.IsBlocked = true
			user.BlockedUntil = &until
		}
		if err := a.users.Update(ctx, user); err != nil {
			logger.Log.Error("save failed login", zap.String("learnerId", user.ID), zap.Error(err))
		}
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	user.LastLogin = &ts
	user.FailedLoginAttempts = 0
	user.LastFailedLogin = nil
	user.IsBlocked = false
	user.BlockedUntil = nil
	if err := a.users.Update(ctx, user); err != nil {
		logger.Log.Error("save last login", zap.String("learnerId", user.ID), zap.Error(err))
	}

	tracking := &models.LoginTracking{
		LearnerID: user.ID,
		IPAddress: in.IP,
		Device:    in.Device,
		Timestamp: ts,
	}
	if err := a.users.RecordLogin(ctx, tracking); err != nil {
		logger.Log.Error("save login tracking", zap.String("learnerId", user.ID), zap.Error(err))
	}

	token, err := a.issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	logger.Log.Info("learner logged in", zap.String("learnerId", user.ID), zap.String("ip", in.IP))
	return &LoginResult{Token: token, User: user}, nil
}

// LoginHistory pages through the learner's tracked logins, newest first.
func (a *Auth) LoginHistory(ctx context.Context, learnerID string, page, limit int) ([]models.LoginTracking, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return a.users.LoginHistory(ctx, learnerID, (page-1)*limit, limit)
}

// Logout is an acknowledgement; tokens are stateless and expire on their own.
func (a *Auth) Logout(ctx context.Context, learnerID string) error {
	if learnerID != "" {
		logger.Log.Info("learner logged out", zap.String("learnerId", learnerID))
	}
	return nil
}
