package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	EventValidateOffer = "validate_offer"
	EventOfferStatus   = "offer_status"
	EventRejoin        = "rejoin"
)

// ValidateOfferUseCase resolves a contact and decides whether the welcome
// offer may be shown.
type ValidateOfferUseCase struct {
	Resolver  ContactResolver
	Evaluator *Evaluator
	Publisher VerdictPublisher
	Log       logrus.FieldLogger
	Now       func() time.Time
}

func NewValidateOfferUseCase(
	resolver ContactResolver,
	evaluator *Evaluator,
	publisher VerdictPublisher,
	log logrus.FieldLogger,
) *ValidateOfferUseCase {
	if publisher == nil {
		publisher = NoopPublisher
	}
	return &ValidateOfferUseCase{
		Resolver:  resolver,
		Evaluator: evaluator,
		Publisher: publisher,
		Log:       log,
		Now:       time.Now,
	}
}

func (uc *ValidateOfferUseCase) Execute(ctx context.Context, input ValidateOfferInput) (*ValidateOfferOutput, error) {
	contactID := strings.TrimSpace(input.ContactID)
	if contactID == "" {
		return nil, ErrMissingContactID
	}

	evaluationID := uuid.NewString()
	log := uc.Log.WithFields(logrus.Fields{"evaluation_id": evaluationID, "contact_id": contactID})

	contact, err := uc.Resolver.Resolve(ctx, contactID)
	if err != nil {
		log.WithError(err).Warn("contact resolution failed")
		publish(ctx, uc.Publisher, log, VerdictEvent{
			EvaluationID: evaluationID,
			Kind:         EventValidateOffer,
			ContactID:    contactID,
			Error:        err.Error(),
			OccurredAt:   uc.Now(),
		})
		return nil, err
	}

	verdict := uc.Evaluator.Evaluate(*contact, uc.Now())
	reasons := verdict.Reasons
	publish(ctx, uc.Publisher, log, VerdictEvent{
		EvaluationID: evaluationID,
		Kind:         EventValidateOffer,
		ContactID:    contactID,
		Valid:        verdict.IsValid,
		Reasons:      &reasons,
		Resolution:   verdict.Resolution,
		OccurredAt:   verdict.EvaluatedAt,
	})

	return &ValidateOfferOutput{EvaluationID: evaluationID, Verdict: verdict}, nil
}

// publish never fails the caller; audit delivery is best effort.
func publish(ctx context.Context, p VerdictPublisher, log logrus.FieldLogger, event VerdictEvent) {
	if p == nil {
		return
	}
	if err := p.PublishVerdict(ctx, event); err != nil {
		log.WithError(err).Warn("failed to publish verdict event")
	}
}
