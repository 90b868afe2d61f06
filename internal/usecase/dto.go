package usecase

import (
	"time"

	"github.com/bookedbeauty/welcome-offer-gate/internal/entity"
)

// AttributionParams are forwarded verbatim to the valid-offer destination.
var AttributionParams = []string{"utm_source", "utm_medium", "utm_campaign", "source"}

type ValidateOfferInput struct {
	ContactID string
}

type ValidateOfferOutput struct {
	EvaluationID string
	Verdict      entity.Verdict
}

type CheckOfferStatusInput struct {
	ContactID string
}

type CheckRejoinInput struct {
	ContactID string
}

// VerdictEvent is the audit record published after every evaluation.
type VerdictEvent struct {
	EvaluationID string                   `json:"evaluation_id"`
	Kind         string                   `json:"kind"` // validate_offer, offer_status, rejoin
	ContactID    string                   `json:"contact_id"`
	Valid        bool                     `json:"valid"`
	Reasons      *entity.Reasons          `json:"reasons,omitempty"`
	Resolution   []entity.FieldResolution `json:"resolution,omitempty"`
	Error        string                   `json:"error,omitempty"`
	OccurredAt   time.Time                `json:"occurred_at"`
}
