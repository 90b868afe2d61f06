package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactRecordUnmarshalListShape(t *testing.T) {
	body := `{
		"id": "c-1",
		"tags": ["Welcome Offer Opt-In", 42, null],
		"customField": [
			{"id": "f1", "value": "Yes"},
			{"name": " Offer Booked ", "value": ["No", "Yes"]},
			{"label": "Welcome Offer Expiry", "value": 1735689600000},
			"garbage",
			{"name": "Nested", "value": {"a": 1}}
		]
	}`

	var c ContactRecord
	require.NoError(t, json.Unmarshal([]byte(body), &c))

	assert.Equal(t, "c-1", c.ID)
	assert.Equal(t, []string{"Welcome Offer Opt-In", "42"}, c.Tags)
	assert.Equal(t, ShapeList, c.CustomFields.Shape)

	fields := c.CustomFields.Normalize()
	require.Len(t, fields, 4)
	assert.Equal(t, "f1", fields[0].ID)
	assert.Equal(t, "yes", fields[0].Norm())
	assert.Equal(t, "offer booked", fields[1].Name)
	assert.Equal(t, "No", fields[1].Value.First())
	assert.Equal(t, "welcome offer expiry", fields[2].Name)
	assert.Equal(t, "1735689600000", fields[2].Value.First())
	assert.Equal(t, "nested", fields[3].Name)
	assert.Empty(t, fields[3].Value.Values)
}

func TestContactRecordUnmarshalMapShapeKeepsOrder(t *testing.T) {
	body := `{"id": 99, "customFields": {"zeta": "yes", "Alpha": true, "mid": null}}`

	var c ContactRecord
	require.NoError(t, json.Unmarshal([]byte(body), &c))

	assert.Equal(t, "99", c.ID)
	assert.Equal(t, ShapeMap, c.CustomFields.Shape)

	fields := c.CustomFields.Normalize()
	require.Len(t, fields, 3)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, []string{fields[0].Name, fields[1].Name, fields[2].Name})
	assert.Equal(t, "true", fields[1].Norm())
	assert.Equal(t, "", fields[2].Norm())
	assert.Equal(t, 2, fields[2].Index)
}

func TestContactRecordPrefersFirstUsableFieldKey(t *testing.T) {
	body := `{"id": "c", "customField": "oops", "customFields": [{"name": "a", "value": "1"}]}`

	var c ContactRecord
	require.NoError(t, json.Unmarshal([]byte(body), &c))
	assert.Equal(t, ShapeList, c.CustomFields.Shape)
	assert.Len(t, c.CustomFields.Normalize(), 1)
}

func TestContactRecordWithoutFields(t *testing.T) {
	var c ContactRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id": "c"}`), &c))
	assert.Equal(t, ShapeAbsent, c.CustomFields.Shape)
	assert.Empty(t, c.CustomFields.Normalize())
	assert.False(t, c.HasTag("anything"))
}

func TestHasTagIsCaseInsensitive(t *testing.T) {
	c := ContactRecord{Tags: []string{"  WELCOME offer opt-in "}}
	assert.True(t, c.HasTag("welcome offer opt-in"))
	assert.False(t, c.HasTag("sent welcome offer tracking link"))
}

func TestTriState(t *testing.T) {
	assert.True(t, Unknown.Or(true))
	assert.False(t, Unknown.Or(false))
	assert.True(t, True.Or(false))
	assert.False(t, False.Or(true))

	b, err := json.Marshal(struct {
		A TriState `json:"a"`
		B TriState `json:"b"`
	}{A: Unknown, B: True})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": null, "b": true}`, string(b))
}
