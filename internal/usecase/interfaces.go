package usecase

import (
	"context"

	"github.com/bookedbeauty/welcome-offer-gate/internal/entity"
)

// ContactResolver fetches a fresh contact snapshot. A contact that cannot be
// found is reported as a *ResolutionError.
type ContactResolver interface {
	Resolve(ctx context.Context, contactID string) (*entity.ContactRecord, error)
}

// VerdictPublisher receives every decision for auditing. Failures never change
// the decision.
type VerdictPublisher interface {
	PublishVerdict(ctx context.Context, event VerdictEvent) error
}

type noopPublisher struct{}

func (noopPublisher) PublishVerdict(context.Context, VerdictEvent) error { return nil }

// NoopPublisher is used when auditing is disabled.
var NoopPublisher VerdictPublisher = noopPublisher{}
