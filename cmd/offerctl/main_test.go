package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeCRM(t *testing.T) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/contacts/good":
			_, _ = w.Write([]byte(`{"contact":{"id":"good","tags":["welcome offer opt-in"],"customField":[
				{"name":"Welcome Offer Access","value":"Yes"},
				{"name":"Offer Booked","value":"No"},
				{"name":"Welcome Offer Expiry","value":"2030-01-01"}]}}`))
		case "/v1/contacts/booked":
			_, _ = w.Write([]byte(`{"contact":{"id":"booked","tags":["welcome offer opt-in"],"customField":[
				{"name":"Welcome Offer Access","value":"Yes"},
				{"name":"Offer Booked","value":"Yes"}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	t.Setenv("GHL_BASE_URL", srv.URL)
	t.Setenv("GHL_API_KEY", "test")
	t.Setenv("GHL_LOCATION_ID", "loc")
	t.Setenv("AMQP_URL", "")
}

func run(args ...string) (*bytes.Buffer, error) {
	out := &bytes.Buffer{}
	cmd := newRootCmd(out)
	cmd.SetArgs(args)
	return out, cmd.Execute()
}

func TestCheckValidContact(t *testing.T) {
	fakeCRM(t)

	out, err := run("check", "good", "--at", "2025-06-15")
	require.NoError(t, err)

	var v struct {
		IsValid    bool `json:"isValid"`
		Resolution []struct {
			Field string `json:"field"`
			Tier  string `json:"tier"`
		} `json:"resolution"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	assert.True(t, v.IsValid)
	require.Len(t, v.Resolution, 3)
	assert.Equal(t, "name", v.Resolution[0].Tier)
}

func TestCheckAfterExpiryIsNotEligible(t *testing.T) {
	fakeCRM(t)

	_, err := run("check", "good", "--at", "2031-01-01")
	assert.ErrorIs(t, err, errNotEligible{})
}

func TestCheckBookedContact(t *testing.T) {
	fakeCRM(t)

	out, err := run("check", "booked")
	assert.ErrorIs(t, err, errNotEligible{})
	assert.Contains(t, out.String(), `"alreadyBooked": true`)
}

func TestCheckUnknownContact(t *testing.T) {
	fakeCRM(t)

	_, err := run("check", "ghost")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errNotEligible{})
}

func TestStatusCommand(t *testing.T) {
	fakeCRM(t)

	out, err := run("status", "good")
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"offerActive": false`)
}

func TestParseAt(t *testing.T) {
	at, err := parseAt("2025-06-15T10:00:00Z", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC), at)

	at, err = parseAt("2025-06-15", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), at)

	_, err = parseAt("tomorrow", time.UTC)
	assert.Error(t, err)
}
