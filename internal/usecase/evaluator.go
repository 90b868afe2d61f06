package usecase

import (
	"time"

	"github.com/bookedbeauty/welcome-offer-gate/internal/config"
	"github.com/bookedbeauty/welcome-offer-gate/internal/entity"
	"github.com/sirupsen/logrus"
)

// Evaluator turns a contact snapshot into access decisions. It holds no state
// between calls.
type Evaluator struct {
	cfg config.OfferConfig
	log logrus.FieldLogger
}

func NewEvaluator(cfg config.OfferConfig, log logrus.FieldLogger) *Evaluator {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Evaluator{cfg: cfg, log: log}
}

// Evaluate is a pure function of the contact and now (apart from logging).
func (e *Evaluator) Evaluate(contact entity.ContactRecord, now time.Time) entity.Verdict {
	log := e.log.WithField("contact_id", contact.ID)

	v := entity.Verdict{
		ContactID:   contact.ID,
		HasOptInTag: contact.HasTag(e.cfg.OptInTag),
		EvaluatedAt: now,
	}

	fields := contact.CustomFields.Normalize()
	loc := e.locateOfferFields(fields)

	v.AccessGranted = e.readBool(log, FieldWelcomeAccess, loc.access, fields)
	v.AlreadyBooked = e.readBool(log, FieldOfferBooked, loc.booked, fields)

	expiry, ok, unparsed := e.readExpiry(log, loc.expiry)
	if ok {
		v.Expiry = &expiry
		v.IsExpired = now.After(expiry)
	}
	v.ExpiryUnparsed = unparsed

	v.Resolution = []entity.FieldResolution{
		loc.access.trace(FieldWelcomeAccess),
		loc.booked.trace(FieldOfferBooked),
		loc.expiry.trace(FieldWelcomeExpiry),
	}

	access := v.AccessGranted.Or(false)
	booked := v.AlreadyBooked.Or(false)
	v.IsValid = v.HasOptInTag && access && !booked && !v.IsExpired
	v.Reasons = entity.Reasons{
		MissingOptInTag:  !v.HasOptInTag,
		AccessNotGranted: !access,
		AlreadyBooked:    booked,
		Expired:          v.IsExpired,
	}

	log.WithFields(logrus.Fields{
		"has_opt_in_tag": v.HasOptInTag,
		"access_granted": v.AccessGranted.String(),
		"already_booked": v.AlreadyBooked.String(),
		"expiry":         formatDate(v.Expiry),
		"is_expired":     v.IsExpired,
		"is_valid":       v.IsValid,
		"field_shape":    contact.CustomFields.Shape.String(),
	}).Info("offer eligibility evaluated")

	return v
}

func (e *Evaluator) readBool(log logrus.FieldLogger, role string, l located, fields []entity.NormalizedField) entity.TriState {
	if !l.found() {
		entry := log.WithFields(logrus.Fields{"field": role, "tier": l.trace(role).Tier})
		if l.tier == entity.TierPositional {
			entry.Info("field assumed false by positional inference")
			return entity.False
		}
		entry.Warn("could not locate field, defaulting to false")
		entry.WithField("fields", dumpFields(fields)).Debug("custom fields at default")
		return entity.Unknown
	}

	state := ParseBool(l.field.Value.First())
	entry := log.WithFields(logrus.Fields{
		"field":      role,
		"tier":       l.tier,
		"field_id":   l.field.ID,
		"field_name": l.field.Name,
		"raw":        l.field.Raw(),
		"parsed":     state.String(),
	})
	switch {
	case l.tier == entity.TierPositional:
		entry.Warn("field resolved by positional inference")
	case state == entity.Unknown:
		entry.Warn("unrecognised boolean value, defaulting to false")
	default:
		entry.Debug("field resolved")
	}
	return state
}

// readExpiry reports unparsed when a field was found but held no usable date.
func (e *Evaluator) readExpiry(log logrus.FieldLogger, l located) (t time.Time, ok bool, unparsed bool) {
	if !l.found() {
		return time.Time{}, false, false
	}
	raw := l.field.Value.First()
	if raw == "" {
		return time.Time{}, false, false
	}
	t, ok = ParseExpiry(raw, e.cfg.Location)
	if !ok {
		log.WithFields(logrus.Fields{
			"field":      FieldWelcomeExpiry,
			"field_id":   l.field.ID,
			"field_name": l.field.Name,
			"raw":        raw,
		}).Warn("expiry value is not a date, ignoring expiry constraint")
		return time.Time{}, false, true
	}
	return t, true, false
}

// EvaluateStatus answers the offer-status check: the "active" field must be
// true and the expiry, if any, not in the past.
func (e *Evaluator) EvaluateStatus(contact entity.ContactRecord, now time.Time) entity.OfferStatus {
	fields := contact.CustomFields.Normalize()
	loc := newFieldLocator(fields, e.cfg.ExcludeKeywords)

	expiry := loc.byID(e.cfg.FieldIDs.Expiry)
	if !expiry.found() {
		expiry = loc.byKeywords(e.cfg.ExpiryKeywords)
	}
	active := loc.byID(e.cfg.FieldIDs.OfferActive)
	if !active.found() {
		active = loc.byExactName(e.cfg.ActiveFieldName)
	}

	log := e.log.WithField("contact_id", contact.ID)
	st := entity.OfferStatus{ContactID: contact.ID, ActiveField: entity.Unknown}
	if active.found() {
		st.ActiveField = ParseBool(active.field.Value.First())
	}
	if t, ok, _ := e.readExpiry(log, expiry); ok {
		st.Expiry = &t
		st.IsExpired = now.After(t)
	}
	st.OfferActive = st.ActiveField == entity.True && !st.IsExpired

	log.WithFields(logrus.Fields{
		"active_field": st.ActiveField.String(),
		"expiry":       formatDate(st.Expiry),
		"offer_active": st.OfferActive,
	}).Info("offer status evaluated")
	return st
}

// EvaluateRejoin grants access when the contact unsubscribed on a channel and
// that channel's marketing status confirms the opt-out.
func (e *Evaluator) EvaluateRejoin(contact entity.ContactRecord) entity.RejoinDecision {
	fields := contact.CustomFields.Normalize()
	loc := newFieldLocator(fields, nil)

	d := entity.RejoinDecision{
		ContactID:        contact.ID,
		HasEmailUnsubTag: contact.HasTag(e.cfg.RejoinEmailTag),
		HasSMSUnsubTag:   contact.HasTag(e.cfg.RejoinSMSTag),
	}
	if f := loc.byExactName(e.cfg.RejoinEmailField); f.found() {
		d.EmailStatus = f.field.Value.First()
	}
	if f := loc.byExactName(e.cfg.RejoinSMSField); f.found() {
		d.SMSStatus = f.field.Value.First()
	}

	optedOut := func(status string) bool {
		return entity.StringValue(status).Normalized() == e.cfg.RejoinOptedOutStatus
	}
	d.EmailMatch = d.HasEmailUnsubTag && optedOut(d.EmailStatus)
	d.SMSMatch = d.HasSMSUnsubTag && optedOut(d.SMSStatus)
	d.Granted = d.EmailMatch || d.SMSMatch

	e.log.WithFields(logrus.Fields{
		"contact_id":   contact.ID,
		"email_unsub":  d.HasEmailUnsubTag,
		"sms_unsub":    d.HasSMSUnsubTag,
		"email_status": d.EmailStatus,
		"sms_status":   d.SMSStatus,
		"granted":      d.Granted,
	}).Info("rejoin evaluated")
	return d
}

func dumpFields(fields []entity.NormalizedField) []map[string]string {
	out := make([]map[string]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, map[string]string{"id": f.ID, "name": f.Name, "value": f.Raw()})
	}
	return out
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "none"
	}
	return t.Format("2006-01-02")
}
