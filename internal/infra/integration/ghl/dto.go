package ghl

import "github.com/bookedbeauty/welcome-offer-gate/internal/entity"

// Endpoint labels used in logs and metrics.
const (
	EndpointContact         = "contact"
	EndpointLocationContact = "location_contact"
)

// Attempt outcomes.
const (
	OutcomeFound     = "found"
	OutcomeHTTPError = "http_error"
	OutcomeNoContact = "no_contact"
	OutcomeMalformed = "malformed"
	OutcomeTransport = "transport"
	OutcomeSkipped   = "skipped"
)

type endpoint struct {
	name string
	url  string
}

// attempt is the result of one lookup against one endpoint.
type attempt struct {
	endpoint endpoint
	status   int
	keys     []string
	outcome  string
	contact  *entity.ContactRecord
	err      error
}
