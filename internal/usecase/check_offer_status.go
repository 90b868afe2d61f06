package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/bookedbeauty/welcome-offer-gate/internal/entity"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type CheckOfferStatusUseCase struct {
	Resolver  ContactResolver
	Evaluator *Evaluator
	Publisher VerdictPublisher
	Log       logrus.FieldLogger
	Now       func() time.Time
}

func NewCheckOfferStatusUseCase(
	resolver ContactResolver,
	evaluator *Evaluator,
	publisher VerdictPublisher,
	log logrus.FieldLogger,
) *CheckOfferStatusUseCase {
	if publisher == nil {
		publisher = NoopPublisher
	}
	return &CheckOfferStatusUseCase{
		Resolver:  resolver,
		Evaluator: evaluator,
		Publisher: publisher,
		Log:       log,
		Now:       time.Now,
	}
}

func (uc *CheckOfferStatusUseCase) Execute(ctx context.Context, input CheckOfferStatusInput) (*entity.OfferStatus, error) {
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

	now := uc.Now()
	status := uc.Evaluator.EvaluateStatus(*contact, now)
	publish(ctx, uc.Publisher, log, VerdictEvent{
		EvaluationID: uuid.NewString(),
		Kind:         EventOfferStatus,
		ContactID:    contactID,
		Valid:        status.OfferActive,
		OccurredAt:   now,
	})
	return &status, nil
}
