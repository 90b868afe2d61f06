package entity

import (
	"encoding/json"
	"strings"
)

// ContactRecord is a read-only snapshot of a CRM contact.
type ContactRecord struct {
	ID           string
	Tags         []string
	CustomFields CustomFieldSet
}

// UnmarshalJSON accepts either "customField" or "customFields" and tolerates
// non-string tags and numeric ids.
func (c *ContactRecord) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*c = ContactRecord{}
	if id, ok := raw["id"]; ok {
		c.ID, _ = scalarString(id)
	}

	if tags, ok := raw["tags"]; ok {
		var items []json.RawMessage
		if err := json.Unmarshal(tags, &items); err == nil {
			for _, item := range items {
				if s, ok := scalarString(item); ok && s != "" {
					c.Tags = append(c.Tags, s)
				}
			}
		}
	}

	for _, key := range []string{"customField", "customFields"} {
		cf, ok := raw[key]
		if !ok {
			continue
		}
		var set CustomFieldSet
		if err := json.Unmarshal(cf, &set); err != nil || set.Shape == ShapeAbsent {
			continue
		}
		c.CustomFields = set
		break
	}
	return nil
}

// NormalizedTags returns the tag set trimmed and lower-cased.
func (c ContactRecord) NormalizedTags() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Tags))
	for _, t := range c.Tags {
		set[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return set
}

// HasTag compares case-insensitively after trimming.
func (c ContactRecord) HasTag(tag string) bool {
	_, ok := c.NormalizedTags()[strings.ToLower(strings.TrimSpace(tag))]
	return ok
}
