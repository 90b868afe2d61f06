package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bookedbeauty/welcome-offer-gate/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, contactID string) (*entity.ContactRecord, error) {
	args := m.Called(ctx, contactID)
	if c := args.Get(0); c != nil {
		return c.(*entity.ContactRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishVerdict(ctx context.Context, event VerdictEvent) error {
	return m.Called(ctx, event).Error(0)
}

func eligibleContact(id string) *entity.ContactRecord {
	c := contact(optIn, field("Welcome Offer Access", "Yes"), field("Offer Booked", "No"))
	c.ID = id
	return &c
}

func newValidateOffer(resolver ContactResolver, publisher VerdictPublisher) *ValidateOfferUseCase {
	ev, _ := newTestEvaluator(offerConfig())
	uc := NewValidateOfferUseCase(resolver, ev, publisher, ev.log)
	uc.Now = func() time.Time { return evalNow }
	return uc
}

func TestValidateOffer_MissingContactIDMakesNoCalls(t *testing.T) {
	resolver := new(MockResolver)
	publisher := new(MockPublisher)
	uc := newValidateOffer(resolver, publisher)

	for _, id := range []string{"", "   "} {
		out, err := uc.Execute(context.Background(), ValidateOfferInput{ContactID: id})
		assert.Nil(t, out)
		assert.ErrorIs(t, err, ErrMissingContactID)
		assert.True(t, IsDomainError(err))
	}

	resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "PublishVerdict", mock.Anything, mock.Anything)
}

func TestValidateOffer_ValidContact(t *testing.T) {
	resolver := new(MockResolver)
	publisher := new(MockPublisher)
	uc := newValidateOffer(resolver, publisher)

	resolver.On("Resolve", mock.Anything, "abc").Return(eligibleContact("abc"), nil).Once()
	publisher.On("PublishVerdict", mock.Anything, mock.MatchedBy(func(e VerdictEvent) bool {
		return e.Kind == EventValidateOffer && e.ContactID == "abc" && e.Valid && e.Error == "" && e.EvaluationID != ""
	})).Return(nil).Once()

	out, err := uc.Execute(context.Background(), ValidateOfferInput{ContactID: " abc "})
	require.NoError(t, err)

	assert.True(t, out.Verdict.IsValid)
	assert.NotEmpty(t, out.EvaluationID)
	assert.Equal(t, evalNow, out.Verdict.EvaluatedAt)
	resolver.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestValidateOffer_ResolutionFailureIsReturned(t *testing.T) {
	resolver := new(MockResolver)
	publisher := new(MockPublisher)
	uc := newValidateOffer(resolver, publisher)

	notFound := &ResolutionError{Kind: ResolutionNotFound, ContactID: "ghost", Attempts: 2}
	resolver.On("Resolve", mock.Anything, "ghost").Return(nil, notFound)
	publisher.On("PublishVerdict", mock.Anything, mock.MatchedBy(func(e VerdictEvent) bool {
		return !e.Valid && e.Error != ""
	})).Return(nil)

	out, err := uc.Execute(context.Background(), ValidateOfferInput{ContactID: "ghost"})

	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrContactNotFound)
	assert.True(t, IsResolutionError(err))
	publisher.AssertExpectations(t)
}

func TestValidateOffer_PublishFailureDoesNotChangeVerdict(t *testing.T) {
	resolver := new(MockResolver)
	publisher := new(MockPublisher)
	uc := newValidateOffer(resolver, publisher)

	resolver.On("Resolve", mock.Anything, "abc").Return(eligibleContact("abc"), nil)
	publisher.On("PublishVerdict", mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	out, err := uc.Execute(context.Background(), ValidateOfferInput{ContactID: "abc"})
	require.NoError(t, err)
	assert.True(t, out.Verdict.IsValid)
}

func TestValidateOffer_NilPublisherIsNoop(t *testing.T) {
	resolver := new(MockResolver)
	uc := newValidateOffer(resolver, nil)

	resolver.On("Resolve", mock.Anything, "abc").Return(eligibleContact("abc"), nil)

	out, err := uc.Execute(context.Background(), ValidateOfferInput{ContactID: "abc"})
	require.NoError(t, err)
	assert.True(t, out.Verdict.IsValid)
}

func TestCheckOfferStatus(t *testing.T) {
	ev, _ := newTestEvaluator(offerConfig())
	resolver := new(MockResolver)
	uc := NewCheckOfferStatusUseCase(resolver, ev, nil, ev.log)
	uc.Now = func() time.Time { return evalNow }

	c := contact(nil, field("Welcome Offer Active", "true"))
	resolver.On("Resolve", mock.Anything, "abc").Return(&c, nil)
	resolver.On("Resolve", mock.Anything, "boom").Return(nil, &ResolutionError{Kind: ResolutionTransport, ContactID: "boom", Attempts: 2, Err: errors.New("dial tcp: refused")})

	st, err := uc.Execute(context.Background(), CheckOfferStatusInput{ContactID: "abc"})
	require.NoError(t, err)
	assert.True(t, st.OfferActive)

	_, err = uc.Execute(context.Background(), CheckOfferStatusInput{ContactID: "boom"})
	assert.True(t, IsResolutionError(err))
	assert.False(t, errors.Is(err, ErrContactNotFound))

	_, err = uc.Execute(context.Background(), CheckOfferStatusInput{})
	assert.ErrorIs(t, err, ErrMissingContactID)
	resolver.AssertNumberOfCalls(t, "Resolve", 2)
}

func TestCheckRejoin(t *testing.T) {
	ev, _ := newTestEvaluator(offerConfig())
	resolver := new(MockResolver)
	publisher := new(MockPublisher)
	uc := NewCheckRejoinUseCase(resolver, ev, publisher, ev.log)

	c := contact([]string{"unsubscribed from email"}, field("Email Marketing Status", "opted-out"))
	resolver.On("Resolve", mock.Anything, "abc").Return(&c, nil)
	publisher.On("PublishVerdict", mock.Anything, mock.MatchedBy(func(e VerdictEvent) bool {
		return e.Kind == EventRejoin && e.Valid
	})).Return(nil).Once()

	d, err := uc.Execute(context.Background(), CheckRejoinInput{ContactID: "abc"})
	require.NoError(t, err)
	assert.True(t, d.Granted)
	publisher.AssertExpectations(t)

	_, err = uc.Execute(context.Background(), CheckRejoinInput{ContactID: ""})
	assert.ErrorIs(t, err, ErrMissingContactID)
	resolver.AssertNumberOfCalls(t, "Resolve", 1)
}
