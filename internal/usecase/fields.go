package usecase

import (
	"strings"

	"github.com/bookedbeauty/welcome-offer-gate/internal/entity"
)

const (
	FieldWelcomeAccess = "welcomeOfferAccess"
	FieldOfferBooked   = "offerBooked"
	FieldWelcomeExpiry = "welcomeOfferExpiry"
	FieldOfferActive   = "welcomeOfferActive"
)

// located is a custom field picked for a role, or nil when nothing matched.
type located struct {
	field *entity.NormalizedField
	tier  entity.ResolutionTier
}

func (l located) found() bool { return l.field != nil }

func (l located) trace(role string) entity.FieldResolution {
	if l.field == nil {
		tier := l.tier
		if tier == "" {
			tier = entity.TierDefault
		}
		return entity.FieldResolution{Field: role, Tier: tier}
	}
	return entity.FieldResolution{
		Field:     role,
		Tier:      l.tier,
		FieldID:   l.field.ID,
		FieldName: l.field.Name,
		Raw:       l.field.Raw(),
	}
}

type offerFields struct {
	access located
	booked located
	expiry located
}

// fieldLocator assigns custom fields to roles. Each field serves at most one role.
type fieldLocator struct {
	fields  []entity.NormalizedField
	claimed map[int]bool
	exclude []string
}

func newFieldLocator(fields []entity.NormalizedField, exclude []string) *fieldLocator {
	return &fieldLocator{
		fields:  fields,
		claimed: make(map[int]bool, len(fields)),
		exclude: exclude,
	}
}

func (l *fieldLocator) claim(i int, tier entity.ResolutionTier) located {
	l.claimed[i] = true
	return located{field: &l.fields[i], tier: tier}
}

func (l *fieldLocator) byID(id string) located {
	if id == "" {
		return located{}
	}
	for i, f := range l.fields {
		if !l.claimed[i] && f.ID == id {
			return l.claim(i, entity.TierID)
		}
	}
	return located{}
}

// byExactName matches the whole normalized name.
func (l *fieldLocator) byExactName(name string) located {
	if name == "" {
		return located{}
	}
	for i, f := range l.fields {
		if !l.claimed[i] && f.Name == name {
			return l.claim(i, entity.TierName)
		}
	}
	return located{}
}

// byKeywords walks keywords in priority order, so a strong keyword on a later
// field beats a weak keyword on an earlier one. Separators are ignored.
func (l *fieldLocator) byKeywords(keywords []string) located {
	for _, kw := range keywords {
		k := compact(kw)
		if k == "" {
			continue
		}
		for i, f := range l.fields {
			if l.claimed[i] || f.Name == "" || l.excluded(f.Name) {
				continue
			}
			if strings.Contains(compact(f.Name), k) {
				return l.claim(i, entity.TierName)
			}
		}
	}
	return located{}
}

func (l *fieldLocator) excluded(name string) bool {
	c := compact(name)
	for _, ex := range l.exclude {
		if e := compact(ex); e != "" && strings.Contains(c, e) {
			return true
		}
	}
	return false
}

// booleanCandidates lists unclaimed fields holding a recognised boolean, in order.
func (l *fieldLocator) booleanCandidates() []int {
	var out []int
	for i, f := range l.fields {
		if !l.claimed[i] && isBooleanEncoding(f.Norm()) {
			out = append(out, i)
		}
	}
	return out
}

func compact(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

// locateOfferFields runs the tiers: stable id, then name keywords, then
// positional boolean inference. Expiry is resolved before booked and booked
// before access so "Welcome Offer Expiry" never lands on the access role.
func (e *Evaluator) locateOfferFields(fields []entity.NormalizedField) offerFields {
	cfg := e.cfg
	loc := newFieldLocator(fields, cfg.ExcludeKeywords)

	var res offerFields
	res.expiry = loc.byID(cfg.FieldIDs.Expiry)
	res.booked = loc.byID(cfg.FieldIDs.OfferBooked)
	res.access = loc.byID(cfg.FieldIDs.WelcomeAccess)

	if !res.expiry.found() {
		res.expiry = loc.byKeywords(cfg.ExpiryKeywords)
	}
	if !res.booked.found() {
		res.booked = loc.byKeywords(cfg.BookedKeywords)
	}
	if !res.access.found() {
		res.access = loc.byKeywords(cfg.AccessKeywords)
	}

	// Last resort for unlabeled schemas. Only runs while access is unresolved;
	// a lone boolean is taken as access with booked assumed false.
	if cfg.PositionalInference && !res.access.found() {
		candidates := loc.booleanCandidates()
		switch {
		case len(candidates) == 1:
			res.access = loc.claim(candidates[0], entity.TierPositional)
			if !res.booked.found() {
				res.booked = located{tier: entity.TierPositional}
			}
		case len(candidates) >= 2:
			res.access = loc.claim(candidates[0], entity.TierPositional)
			if !res.booked.found() {
				res.booked = loc.claim(candidates[1], entity.TierPositional)
			}
		}
	}
	return res
}
