package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/bookedbeauty/welcome-offer-gate/internal/entity"
)

var (
	ordinalSuffix = regexp.MustCompile(`(?i)(\d+)(st|nd|rd|th)\b`)
	isoDate       = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// ParseBool maps the CRM's boolean encodings. Anything unrecognised is Unknown.
func ParseBool(raw string) entity.TriState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "true", "1":
		return entity.True
	case "no", "false", "0", "":
		return entity.False
	default:
		return entity.Unknown
	}
}

func isBooleanEncoding(raw string) bool {
	return ParseBool(raw) != entity.Unknown
}

// ParseExpiry reads an expiry value. YYYY-MM-DD is built as a calendar date in
// loc, with out-of-range days and months rolled over ("2024-02-30" is
// 2024-03-01); other inputs go through generic date parsing after ordinal
// suffixes are stripped ("March 1st" -> "March 1").
func ParseExpiry(raw string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	cleaned := strings.TrimSpace(ordinalSuffix.ReplaceAllString(strings.TrimSpace(raw), "$1"))
	if cleaned == "" {
		return time.Time{}, false
	}

	if m := isoDate.FindStringSubmatch(cleaned); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), true
	}

	t, err := dateparse.ParseIn(cleaned, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
