package entity

import "time"

// TriState is a boolean that may not have been determined.
type TriState int8

const (
	Unknown TriState = iota
	True
	False
)

func TriStateOf(b bool) TriState {
	if b {
		return True
	}
	return False
}

// Or returns def when the state is Unknown.
func (t TriState) Or(def bool) bool {
	switch t {
	case True:
		return true
	case False:
		return false
	default:
		return def
	}
}

func (t TriState) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

func (t TriState) MarshalJSON() ([]byte, error) {
	if t == Unknown {
		return []byte("null"), nil
	}
	return []byte(t.String()), nil
}

// ResolutionTier records how a custom field was located.
type ResolutionTier string

const (
	TierID         ResolutionTier = "id"
	TierName       ResolutionTier = "name"
	TierPositional ResolutionTier = "positional"
	TierDefault    ResolutionTier = "default"
)

// FieldResolution is one line of the evaluation trace.
type FieldResolution struct {
	Field     string         `json:"field"`
	Tier      ResolutionTier `json:"tier"`
	FieldID   string         `json:"fieldId,omitempty"`
	FieldName string         `json:"fieldName,omitempty"`
	Raw       string         `json:"raw,omitempty"`
}

type Reasons struct {
	MissingOptInTag  bool `json:"missingOptInTag"`
	AccessNotGranted bool `json:"accessNotGranted"`
	AlreadyBooked    bool `json:"alreadyBooked"`
	Expired          bool `json:"expired"`
}

// Verdict is recomputed per request and never persisted.
type Verdict struct {
	ContactID      string            `json:"contactId"`
	HasOptInTag    bool              `json:"hasOptInTag"`
	AccessGranted  TriState          `json:"accessGranted"`
	AlreadyBooked  TriState          `json:"alreadyBooked"`
	Expiry         *time.Time        `json:"expiry"`
	IsExpired      bool              `json:"isExpired"`
	ExpiryUnparsed bool              `json:"expiryUnparsed,omitempty"`
	IsValid        bool              `json:"isValid"`
	Reasons        Reasons           `json:"reasons"`
	Resolution     []FieldResolution `json:"resolution"`
	EvaluatedAt    time.Time         `json:"evaluatedAt"`
}

// OfferStatus is the answer of the offer-status check.
type OfferStatus struct {
	ContactID   string     `json:"contactId"`
	OfferActive bool       `json:"offerActive"`
	ActiveField TriState   `json:"activeField"`
	Expiry      *time.Time `json:"expiry"`
	IsExpired   bool       `json:"isExpired"`
}

// RejoinDecision is the answer of the opt-in rejoin gate.
type RejoinDecision struct {
	ContactID        string `json:"contactId"`
	HasEmailUnsubTag bool   `json:"hasEmailUnsubTag"`
	HasSMSUnsubTag   bool   `json:"hasSmsUnsubTag"`
	EmailStatus      string `json:"emailStatus"`
	SMSStatus        string `json:"smsStatus"`
	EmailMatch       bool   `json:"emailMatch"`
	SMSMatch         bool   `json:"smsMatch"`
	Granted          bool   `json:"granted"`
}
