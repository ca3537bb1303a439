// Package service holds the registration workflow: validate, check the email,
// insert, attach the formatted id, notify.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mockskills/collabzone/internal/domain/registration"
	"github.com/mockskills/collabzone/internal/notifications"
	"github.com/mockskills/collabzone/internal/observability"
	"github.com/mockskills/collabzone/internal/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/mockskills/collabzone/internal/service")

// Store is the identity store the workflow runs against.
type Store interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, reg registration.Registration) (registration.Registration, error)
	FindByID(ctx context.Context, id int64) (registration.Registration, error)
	FindAll(ctx context.Context) ([]registration.Registration, error)
	// ListMissingFormattedID returns records without a formatted id whose
	// id is greater than afterID, in id order.
	ListMissingFormattedID(ctx context.Context, afterID int64, limit int) ([]registration.Registration, error)
}

// Confirmation is the success response of a registration.
type Confirmation struct {
	ID          int64  `json:"-"`
	Name        string `json:"name"`
	FormattedID string `json:"formattedId"`
}

func (c Confirmation) Message() string {
	return fmt.Sprintf("Hello %s, your registration was successful! Your unique ID is: %s. Welcome to MockSkills!", c.Name, c.FormattedID)
}

type RegistrationService struct {
	store    Store
	notifier notifications.Notifier
	log      *slog.Logger
	prom     *observability.Prom
}

func NewRegistrationService(store Store, notifier notifications.Notifier, log *slog.Logger, prom *observability.Prom) *RegistrationService {
	if log == nil {
		log = slog.Default()
	}
	return &RegistrationService{
		store:    store,
		notifier: notifier,
		log:      log,
		prom:     prom,
	}
}

// Create runs the full workflow for one submission. Rejections come back as
// *registration.RejectionError; anything else is an internal failure.
func (s *RegistrationService) Create(ctx context.Context, candidate registration.Registration) (Confirmation, error) {
	ctx, span := tracer.Start(ctx, "registration.create")
	defer span.End()

	candidate.Name = strings.TrimSpace(candidate.Name)
	candidate.Email = registration.NormalizeEmail(candidate.Email)
	// id, formatted id and join date belong to the store
	candidate.ID = 0
	candidate.FormattedID = ""

	s.log.InfoContext(ctx, "creating registration", "name", candidate.Name)

	// received -> validated
	if rej := validation.Check(candidate); rej != nil {
		s.log.WarnContext(ctx, "registration rejected", "field", rej.Field, "reason", rej.Reason)
		s.reject(span, "invalid")
		return Confirmation{}, rej
	}

	// validated -> unique-checked
	exists, err := s.store.ExistsByEmail(ctx, candidate.Email)
	if err != nil {
		return Confirmation{}, s.fail(ctx, span, "check email", err)
	}
	if exists {
		s.log.WarnContext(ctx, "email already registered", "email", candidate.Email)
		s.reject(span, "conflict")
		return Confirmation{}, registration.EmailTaken()
	}

	// unique-checked -> stored
	saved, err := s.store.Save(ctx, candidate)
	if err != nil {
		if errors.Is(err, registration.ErrEmailTaken) {
			// lost a race with a concurrent submission
			s.log.WarnContext(ctx, "email already registered", "email", candidate.Email, "detected", "constraint")
			s.reject(span, "conflict")
			return Confirmation{}, registration.EmailTaken()
		}
		return Confirmation{}, s.fail(ctx, span, "insert registration", err)
	}
	span.SetAttributes(attribute.Int64("registration.id", saved.ID))

	// stored -> identified
	saved = s.attachFormattedID(ctx, saved)
	span.SetAttributes(attribute.String("registration.formatted_id", saved.FormattedID))

	// identified -> notified
	outcome := s.notifier.SendRegistrationConfirmation(ctx, saved)
	s.log.DebugContext(ctx, "confirmation dispatched", "formatted_id", saved.FormattedID, "outcome", string(outcome))

	s.log.InfoContext(ctx, "registration created", "name", saved.Name, "formatted_id", saved.FormattedID)
	s.prom.ObserveRegistration("created")

	return Confirmation{
		ID:          saved.ID,
		Name:        saved.Name,
		FormattedID: saved.FormattedID,
	}, nil
}

// attachFormattedID performs the second write. If it fails the record keeps
// its id without a formatted id; the value is still returned because it is
// derived from the id alone, and the repair pass persists it later.
func (s *RegistrationService) attachFormattedID(ctx context.Context, saved registration.Registration) registration.Registration {
	formatted := registration.FormatID(saved.ID)
	saved.FormattedID = formatted

	updated, err := s.store.Save(ctx, saved)
	if err != nil {
		s.log.ErrorContext(ctx, "attach formatted id failed; left for repair",
			"id", saved.ID,
			"formatted_id", formatted,
			"err", err,
		)
		return saved
	}

	return updated
}

func (s *RegistrationService) Get(ctx context.Context, id int64) (registration.Registration, error) {
	s.log.DebugContext(ctx, "fetching registration", "id", id)

	reg, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, registration.ErrNotFound) {
			s.log.InfoContext(ctx, "registration not found", "id", id)
		}
		return registration.Registration{}, err
	}

	return withFormattedID(reg), nil
}

func (s *RegistrationService) List(ctx context.Context) ([]registration.Registration, error) {
	regs, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range regs {
		regs[i] = withFormattedID(regs[i])
	}
	return regs, nil
}

// RepairFormattedIDs attaches the formatted id to every record that is
// missing one. A record that fails is logged and skipped for the rest of the
// pass; the failures are returned joined. Running it again is a no-op.
func (s *RegistrationService) RepairFormattedIDs(ctx context.Context, batch int) (int, error) {
	ctx, span := tracer.Start(ctx, "registration.repair_formatted_ids")
	defer span.End()

	if batch <= 0 {
		batch = 100
	}

	var (
		repaired int
		failed   []error
		cursor   int64
	)
	defer func() {
		s.prom.ObserveRepaired(repaired)
		span.SetAttributes(
			attribute.Int("registration.repaired", repaired),
			attribute.Int("registration.repair_failed", len(failed)),
		)
	}()

	for {
		pending, err := s.store.ListMissingFormattedID(ctx, cursor, batch)
		if err != nil {
			span.RecordError(err)
			failed = append(failed, fmt.Errorf("list missing formatted ids: %w", err))
			return repaired, errors.Join(failed...)
		}

		for _, reg := range pending {
			cursor = reg.ID
			reg.FormattedID = registration.FormatID(reg.ID)

			if _, err := s.store.Save(ctx, reg); err != nil {
				span.RecordError(err)
				s.prom.ObserveRepairFailure()
				s.log.ErrorContext(ctx, "formatted id repair failed", "id", reg.ID, "err", err)
				failed = append(failed, fmt.Errorf("repair registration %d: %w", reg.ID, err))
				continue
			}
			repaired++
			s.log.InfoContext(ctx, "formatted id repaired", "id", reg.ID, "formatted_id", reg.FormattedID)
		}

		if len(pending) < batch {
			break
		}
		if err := ctx.Err(); err != nil {
			failed = append(failed, err)
			break
		}
	}

	if len(failed) > 0 {
		span.SetStatus(codes.Error, "repair incomplete")
	}
	return repaired, errors.Join(failed...)
}

func (s *RegistrationService) reject(span trace.Span, result string) {
	span.SetAttributes(attribute.String("registration.result", result))
	s.prom.ObserveRegistration(result)
}

func (s *RegistrationService) fail(ctx context.Context, span trace.Span, step string, err error) error {
	s.log.ErrorContext(ctx, "registration failed", "step", step, "err", err)
	span.RecordError(err)
	span.SetStatus(codes.Error, step)
	s.prom.ObserveRegistration("error")
	return fmt.Errorf("%s: %w", step, err)
}

// withFormattedID fills the derived code for records caught between the two
// writes, so readers never see an id without one.
func withFormattedID(reg registration.Registration) registration.Registration {
	if reg.ID > 0 && reg.FormattedID == "" {
		reg.FormattedID = registration.FormatID(reg.ID)
	}
	return reg
}
