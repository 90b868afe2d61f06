package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/bookedbeauty/welcome-offer-gate/internal/entity"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CheckRejoinUseCase gates the opt-in rejoin page to contacts that actually
// unsubscribed.
type CheckRejoinUseCase struct {
	Resolver  ContactResolver
	Evaluator *Evaluator
	Publisher VerdictPublisher
	Log       logrus.FieldLogger
	Now       func() time.Time
}

func NewCheckRejoinUseCase(
	resolver ContactResolver,
	evaluator *Evaluator,
	publisher VerdictPublisher,
	log logrus.FieldLogger,
) *CheckRejoinUseCase {
	if publisher == nil {
		publisher = NoopPublisher
	}
	return &CheckRejoinUseCase{
		Resolver:  resolver,
		Evaluator: evaluator,
		Publisher: publisher,
		Log:       log,
		Now:       time.Now,
	}
}

func (uc *CheckRejoinUseCase) Execute(ctx context.Context, input CheckRejoinInput) (*entity.RejoinDecision, error) {
	contactID := strings.TrimSpace(input.ContactID)
	if contactID == "" {
		return nil, ErrMissingContactID
	}

	log := uc.Log.WithField("contact_id", contactID)
	contact, err := uc.Resolver.Resolve(ctx, contactID)
	if err != nil {
		log.WithError(err).Warn("contact resolution failed")
		return nil, err
	}

	decision := uc.Evaluator.EvaluateRejoin(*contact)
	publish(ctx, uc.Publisher, log, VerdictEvent{
		EvaluationID: uuid.NewString(),
		Kind:         EventRejoin,
		ContactID:    contactID,
		Valid:        decision.Granted,
		OccurredAt:   uc.Now(),
	})
	return &decision, nil
}
