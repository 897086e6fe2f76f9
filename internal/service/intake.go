// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"html"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	"github.com/noblesavage/site/internal/cache"
	"github.com/noblesavage/site/internal/events"
	"github.com/noblesavage/site/internal/metrics"
	"github.com/noblesavage/site/internal/model"
	"github.com/noblesavage/site/internal/repository"
	"github.com/noblesavage/site/internal/signup"
)

// Service errors.
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrStoreUnavailable = errors.New("intake store not configured")
)

// DefaultPlaceholderID is returned for every submission when no store is configured.
const DefaultPlaceholderID = "123"

// FailureReason is shown to visitors when a submission cannot be stored.
const FailureReason = "We couldn't save your answers right now. Please try again in a moment."

// maxFieldLength caps every stored string, in runes.
const maxFieldLength = 500

// IntakeStore persists intakes.
type IntakeStore interface {
	CreateIntake(ctx context.Context, intake *model.Intake) error
	GetIntakeByID(ctx context.Context, id string) (*model.Intake, error)
	ListIntakes(ctx context.Context, limit int) ([]*model.Intake, error)
}

// IntakeCache is a read-through cache in front of the store.
type IntakeCache interface {
	GetIntake(ctx context.Context, customerID string) (*model.Intake, error)
	SetIntake(ctx context.Context, intake *model.Intake) error
}

// EventPublisher announces stored intakes.
type EventPublisher interface {
	PublishAsync(event events.IntakeSubmitted)
}

// IntakeConfig wires the optional backends of IntakeService.
// Nil Store selects placeholder mode: nothing is stored and every
// submission succeeds with PlaceholderID.
type IntakeConfig struct {
	Store         IntakeStore
	Cache         IntakeCache
	Events        EventPublisher
	PlaceholderID string
	Metrics       metrics.Recorder
	Logger        *slog.Logger
}

// SubmitMeta carries request details that are not part of the form.
type SubmitMeta struct {
	Referrer string
}

// IntakeService handles intake submission and customer lookup.
type IntakeService struct {
	store         IntakeStore
	cache         IntakeCache
	events        EventPublisher
	placeholderID string
	metrics       metrics.Recorder
	logger        *slog.Logger
	policy        *bluemonday.Policy
	now           func() time.Time
	newID         func() string
}

// NewIntakeService creates a new IntakeService.
func NewIntakeService(cfg IntakeConfig) *IntakeService {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PlaceholderID == "" {
		cfg.PlaceholderID = DefaultPlaceholderID
	}
	return &IntakeService{
		store:         cfg.Store,
		cache:         cfg.Cache,
		events:        cfg.Events,
		placeholderID: cfg.PlaceholderID,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger.With("component", "service.intake"),
		policy:        bluemonday.StrictPolicy(),
		now:           func() time.Time { return time.Now().UTC() },
		newID:         func() string { return ulid.Make().String() },
	}
}

// Placeholder reports whether submissions are answered with the placeholder identifier.
func (s *IntakeService) Placeholder() bool {
	return s.store == nil
}

// IsPlaceholderCustomer reports whether id is the identifier handed out
// by placeholder submissions.
func (s *IntakeService) IsPlaceholderCustomer(id string) bool {
	return s.store == nil && id == s.placeholderID
}

// Submit records a completed form and returns the terminal submission state.
// It never returns Idle or Pending.
func (s *IntakeService) Submit(ctx context.Context, form *signup.Form, meta SubmitMeta) signup.Submission {
	start := time.Now()
	defer func() {
		s.metrics.ObserveSignupDuration(time.Since(start))
	}()

	if s.store == nil {
		s.metrics.IncSignupSubmitted(metrics.SignupSucceeded)
		return signup.Succeeded(s.placeholderID)
	}

	intake := s.buildIntake(form)

	if err := s.store.CreateIntake(ctx, intake); err != nil {
		s.logger.Error("failed to store intake",
			"customer_id", intake.ID,
			"error", err,
		)
		s.metrics.IncSignupSubmitted(metrics.SignupFailed)
		return signup.Failed(FailureReason)
	}

	if s.cache != nil {
		if err := s.cache.SetIntake(ctx, intake); err != nil {
			s.logger.Warn("failed to cache intake",
				"customer_id", intake.ID,
				"error", err,
			)
		}
	}

	if s.events != nil {
		s.events.PublishAsync(events.NewIntakeSubmitted(intake.ID, meta.Referrer, intake.CreatedAt))
	}

	s.logger.Info("intake_submitted",
		"customer_id", intake.ID,
		"empty", intake.IsEmpty(),
	)
	s.metrics.IncSignupSubmitted(metrics.SignupSucceeded)

	return signup.Succeeded(intake.ID)
}

// GetCustomer returns the stored intake for a customer identifier.
// Returns ErrCustomerNotFound when nothing is stored under id,
// including in placeholder mode.
func (s *IntakeService) GetCustomer(ctx context.Context, id string) (*model.Intake, error) {
	if s.store == nil || id == "" {
		return nil, ErrCustomerNotFound
	}

	if s.cache != nil {
		intake, err := s.cache.GetIntake(ctx, id)
		if err == nil {
			s.metrics.IncCustomerCacheHit()
			return intake, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("customer cache read failed", "customer_id", id, "error", err)
		}
		s.metrics.IncCustomerCacheMiss()
	}

	intake, err := s.store.GetIntakeByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrIntakeNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetIntake(ctx, intake); err != nil {
			s.logger.Warn("failed to cache intake", "customer_id", id, "error", err)
		}
	}

	return intake, nil
}

// ListIntakes returns recent intakes, newest first.
func (s *IntakeService) ListIntakes(ctx context.Context, limit int) ([]*model.Intake, error) {
	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	return s.store.ListIntakes(ctx, limit)
}

// buildIntake converts form state into a storable intake.
// The form itself is left untouched.
func (s *IntakeService) buildIntake(form *signup.Form) *model.Intake {
	return &model.Intake{
		ID:            s.newID(),
		Roles:         s.cleanAll(form.Selected(signup.FieldRole)),
		RoleOther:     s.clean(form.Value(signup.FieldRoleOther)),
		MainGoals:     s.cleanAll(form.Selected(signup.FieldMainGoal)),
		MainGoalOther: s.clean(form.Value(signup.FieldMainGoalOther)),
		Tones:         s.cleanAll(form.Selected(signup.FieldTone)),
		Formats:       s.cleanAll(form.Selected(signup.FieldFormat)),
		FormatOther:   s.clean(form.Value(signup.FieldFormatOther)),
		CreatedAt:     s.now(),
	}
}

// clean strips markup and surrounding whitespace and caps the length.
// The policy escapes entities, so the result is unescaped back to plain text.
func (s *IntakeService) clean(value string) string {
	value = html.UnescapeString(s.policy.Sanitize(value))
	value = strings.TrimSpace(value)
	if utf8.RuneCountInString(value) > maxFieldLength {
		value = string([]rune(value)[:maxFieldLength])
	}
	return value
}

func (s *IntakeService) cleanAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if c := s.clean(v); c != "" {
			out = append(out, c)
		}
	}
	return out
}
