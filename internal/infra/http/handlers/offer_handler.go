package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/bookedbeauty/welcome-offer-gate/internal/config"
	"github.com/bookedbeauty/welcome-offer-gate/internal/infra/http/middleware"
	"github.com/bookedbeauty/welcome-offer-gate/internal/usecase"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

const ValidateOfferPath = "/api/validateOffer"

// OfferHandler is the only place where use case results become HTTP
// responses. Redirect endpoints always answer with a redirect.
type OfferHandler struct {
	ValidateOffer    *usecase.ValidateOfferUseCase
	CheckOfferStatus *usecase.CheckOfferStatusUseCase
	CheckRejoin      *usecase.CheckRejoinUseCase
	Redirect         config.RedirectConfig
	Log              logrus.FieldLogger
}

func NewOfferHandler(
	validate *usecase.ValidateOfferUseCase,
	status *usecase.CheckOfferStatusUseCase,
	rejoin *usecase.CheckRejoinUseCase,
	redirect config.RedirectConfig,
	log logrus.FieldLogger,
) *OfferHandler {
	return &OfferHandler{
		ValidateOffer:    validate,
		CheckOfferStatus: status,
		CheckRejoin:      rejoin,
		Redirect:         redirect,
		Log:              log,
	}
}

func (h *OfferHandler) status() int {
	if h.Redirect.Status == http.StatusTemporaryRedirect {
		return http.StatusTemporaryRedirect
	}
	return http.StatusFound
}

func (h *OfferHandler) redirect(w http.ResponseWriter, r *http.Request, target string) {
	middleware.SetNoCache(w.Header())
	http.Redirect(w, r, target, h.status())
}

func (h *OfferHandler) validateOfferURL() string {
	if h.Redirect.ValidateOfferURL != "" {
		return h.Redirect.ValidateOfferURL
	}
	return ValidateOfferPath
}

func (h *OfferHandler) logger(r *http.Request) logrus.FieldLogger {
	return h.Log.WithField("request_id", chimw.GetReqID(r.Context()))
}

// recoverTo turns a panic into a redirect to fallback.
func (h *OfferHandler) recoverTo(w http.ResponseWriter, r *http.Request, fallback string) {
	if rec := recover(); rec != nil {
		h.logger(r).WithField("panic", rec).Error("recovered from panic, sending fallback redirect")
		middleware.RecordIntegrationError("handler_panic")
		h.redirect(w, r, fallback)
	}
}

func contactID(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func attribution(r *http.Request) url.Values {
	q := r.URL.Query()
	out := url.Values{}
	for _, key := range usecase.AttributionParams {
		if v := q.Get(key); v != "" {
			out.Set(key, v)
		}
	}
	return out
}

// Entry forwards a campaign click to the validation endpoint without calling
// the CRM.
func (h *OfferHandler) Entry(w http.ResponseWriter, r *http.Request) {
	id := contactID(r, "contactId")
	if id == "" {
		h.logger(r).Warn("entry without contactId")
		h.redirect(w, r, h.Redirect.InvalidURL)
		return
	}

	params := url.Values{"contactId": {id}}
	for k, vs := range attribution(r) {
		params[k] = vs
	}
	h.redirect(w, r, buildURL(h.validateOfferURL(), params))
}

// Validate resolves the contact, evaluates it and redirects to the valid or
// invalid offer page. Every failure ends on the invalid page.
func (h *OfferHandler) Validate(w http.ResponseWriter, r *http.Request) {
	defer h.recoverTo(w, r, h.Redirect.InvalidURL)
	log := h.logger(r)

	id := contactID(r, "contactId")
	out, err := h.ValidateOffer.Execute(r.Context(), usecase.ValidateOfferInput{ContactID: id})
	if err != nil {
		switch {
		case usecase.IsDomainError(err):
			log.Warn("no contactId in request")
		case errors.Is(err, usecase.ErrContactNotFound):
			log.WithField("contact_id", id).Warn("no contact found after all endpoints")
		default:
			log.WithError(err).WithField("contact_id", id).Error("contact resolution failed")
			middleware.RecordIntegrationError("crm")
		}
		middleware.RecordVerdict(usecase.EventValidateOffer, false)
		h.redirect(w, r, h.Redirect.InvalidURL)
		return
	}

	v := out.Verdict
	middleware.RecordVerdict(usecase.EventValidateOffer, v.IsValid)
	if v.ExpiryUnparsed {
		middleware.RecordExpiryParseFailure()
	}

	entry := log.WithFields(logrus.Fields{"evaluation_id": out.EvaluationID, "contact_id": id})
	if !v.IsValid {
		entry.WithField("reasons", v.Reasons).Info("offer invalid, redirecting")
		h.redirect(w, r, h.Redirect.InvalidURL)
		return
	}

	params := url.Values{"contactId": {id}}
	for k, vs := range attribution(r) {
		params[k] = vs
	}
	entry.Info("offer valid, redirecting")
	h.redirect(w, r, buildURL(h.Redirect.ValidURL, params))
}

type offerStatusResponse struct {
	OfferActive bool   `json:"offerActive"`
	Error       string `json:"error,omitempty"`
}

// Status answers {"offerActive": bool} for client-side page gating.
func (h *OfferHandler) Status(w http.ResponseWriter, r *http.Request) {
	middleware.SetNoCache(w.Header())
	log := h.logger(r)

	id := contactID(r, "contactId")
	st, err := h.CheckOfferStatus.Execute(r.Context(), usecase.CheckOfferStatusInput{ContactID: id})
	if err != nil {
		middleware.RecordVerdict(usecase.EventOfferStatus, false)
		switch {
		case usecase.IsDomainError(err):
			writeJSON(w, http.StatusBadRequest, offerStatusResponse{Error: "Missing contactId"})
		case errors.Is(err, usecase.ErrContactNotFound):
			writeJSON(w, http.StatusNotFound, offerStatusResponse{Error: "Contact not found"})
		default:
			log.WithError(err).WithField("contact_id", id).Error("offer status check failed")
			middleware.RecordIntegrationError("crm")
			writeJSON(w, http.StatusInternalServerError, offerStatusResponse{Error: "Server error"})
		}
		return
	}

	middleware.RecordVerdict(usecase.EventOfferStatus, st.OfferActive)
	writeJSON(w, http.StatusOK, offerStatusResponse{OfferActive: st.OfferActive})
}

// Rejoin lets contacts who unsubscribed reach the opt-in rejoin page.
func (h *OfferHandler) Rejoin(w http.ResponseWriter, r *http.Request) {
	defer h.recoverTo(w, r, h.Redirect.RejoinInvalidURL)
	log := h.logger(r)

	id := contactID(r, "cid")
	d, err := h.CheckRejoin.Execute(r.Context(), usecase.CheckRejoinInput{ContactID: id})
	if err != nil {
		if !usecase.IsDomainError(err) {
			log.WithError(err).WithField("contact_id", id).Warn("rejoin check failed")
		}
		middleware.RecordVerdict(usecase.EventRejoin, false)
		h.redirect(w, r, h.Redirect.RejoinInvalidURL)
		return
	}

	middleware.RecordVerdict(usecase.EventRejoin, d.Granted)
	if !d.Granted {
		h.redirect(w, r, h.Redirect.RejoinInvalidURL)
		return
	}
	h.redirect(w, r, h.Redirect.RejoinValidURL)
}
