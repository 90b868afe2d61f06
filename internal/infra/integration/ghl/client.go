package ghl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/bookedbeauty/welcome-offer-gate/internal/config"
	"github.com/bookedbeauty/welcome-offer-gate/internal/entity"
	"github.com/bookedbeauty/welcome-offer-gate/internal/usecase"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// Client resolves contacts against the CRM REST API. It tries the global
// contact endpoint first and the location-scoped one second.
type Client struct {
	apiKey     string
	locationID string
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
	observe    func(endpoint, outcome string)
}

func NewClient(cfg config.CRMConfig, log logrus.FieldLogger, httpClient *http.Client) *Client {
	if httpClient == nil {
		// Zero keeps the client default: requests are bounded by ctx only.
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	return &Client{
		apiKey:     cfg.APIKey,
		locationID: cfg.LocationID,
		baseURL:    baseURL,
		httpClient: httpClient,
		log:        log,
	}
}

// OnAttempt registers a callback invoked once per endpoint attempt.
func (c *Client) OnAttempt(fn func(endpoint, outcome string)) *Client {
	c.observe = fn
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) endpoints(contactID string) []endpoint {
	id := url.PathEscape(contactID)
	return []endpoint{
		{name: EndpointContact, url: fmt.Sprintf("%s/v1/contacts/%s", c.baseURL, id)},
		{name: EndpointLocationContact, url: fmt.Sprintf("%s/v1/locations/%s/contacts/%s", c.baseURL, url.PathEscape(c.locationID), id)},
	}
}

// Resolve returns the first contact found. When both endpoints fail it returns
// a *usecase.ResolutionError classified by the worst failure seen.
func (c *Client) Resolve(ctx context.Context, contactID string) (*entity.ContactRecord, error) {
	if c.apiKey == "" {
		c.log.Warn("CRM API key not configured")
	}

	var attempts []attempt
	for _, ep := range c.endpoints(contactID) {
		if ep.name == EndpointLocationContact && c.locationID == "" {
			c.log.WithField("endpoint", ep.name).Warn("CRM location id not configured, skipping endpoint")
			c.record(ep.name, OutcomeSkipped)
			continue
		}

		a := c.try(ctx, ep)
		attempts = append(attempts, a)
		c.logAttempt(contactID, a)
		c.record(ep.name, a.outcome)

		if a.outcome == OutcomeFound {
			return a.contact, nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	return nil, classify(contactID, attempts)
}

func (c *Client) try(ctx context.Context, ep endpoint) attempt {
	a := attempt{endpoint: ep}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.url, nil)
	if err != nil {
		a.outcome, a.err = OutcomeTransport, err
		return a
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		a.outcome, a.err = OutcomeTransport, err
		return a
	}
	defer resp.Body.Close()
	a.status = resp.StatusCode

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		a.outcome, a.err = OutcomeTransport, err
		return a
	}

	var top map[string]json.RawMessage
	jsonErr := json.Unmarshal(body, &top)
	a.keys = sortedKeys(top)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		a.outcome = OutcomeHTTPError
		a.err = fmt.Errorf("status %d", resp.StatusCode)
		return a
	}
	if jsonErr != nil {
		a.outcome, a.err = OutcomeMalformed, jsonErr
		return a
	}

	payload := json.RawMessage(body)
	if nested, ok := top["contact"]; ok && isObject(nested) {
		payload = nested
	}

	var contact entity.ContactRecord
	if err := json.Unmarshal(payload, &contact); err != nil {
		a.outcome, a.err = OutcomeMalformed, err
		return a
	}
	if strings.TrimSpace(contact.ID) == "" {
		a.outcome = OutcomeNoContact
		return a
	}

	a.outcome = OutcomeFound
	a.contact = &contact
	return a
}

func (c *Client) logAttempt(contactID string, a attempt) {
	entry := c.log.WithFields(logrus.Fields{
		"contact_id": contactID,
		"endpoint":   a.endpoint.name,
		"url":        a.endpoint.url,
		"status":     a.status,
		"keys":       a.keys,
		"outcome":    a.outcome,
	})
	if a.err != nil {
		entry = entry.WithError(a.err)
	}
	if a.outcome == OutcomeFound {
		entry.Info("contact fetched")
		return
	}
	entry.Warn("contact lookup failed")
}

func (c *Client) record(endpoint, outcome string) {
	if c.observe != nil {
		c.observe(endpoint, outcome)
	}
}

// classify picks the error kind: any transport failure wins, then malformed
// payloads, and only clean misses count as not found.
func classify(contactID string, attempts []attempt) error {
	re := &usecase.ResolutionError{
		Kind:      usecase.ResolutionNotFound,
		ContactID: contactID,
		Attempts:  len(attempts),
	}
	var errs []error
	malformed := false
	for _, a := range attempts {
		if a.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.endpoint.name, a.err))
		}
		switch a.outcome {
		case OutcomeTransport:
			re.Kind = usecase.ResolutionTransport
		case OutcomeMalformed:
			malformed = true
		}
	}
	if re.Kind != usecase.ResolutionTransport && malformed {
		re.Kind = usecase.ResolutionMalformed
	}
	re.Err = errors.Join(errs...)
	return re
}

func isObject(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return strings.HasPrefix(s, "{")
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
