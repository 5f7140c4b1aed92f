package extract

import (
	"regexp"
	"strings"
	"time"
)

// dobLayouts are the accepted input date formats, tried in order. The
// mm/dd layout sits before dd/mm so ambiguous slash dates resolve to
// month-first.
var dobLayouts = []string{
	"2 Jan 2006",
	"2 January 2006",
	"2006-01-02",
	"1/2/2006",
	"2/1/2006",
}

// canonicalDOB matches a date already in mm/dd/yyyy form.
var canonicalDOB = regexp.MustCompile(`^(0[1-9]|1[0-2])/(0[1-9]|[12][0-9]|3[01])/\d{4}$`)

// CanonicalDOB canonicalizes a date of birth to mm/dd/yyyy. If no known
// format parses, the input is accepted only when it already matches the
// canonical pattern literally; otherwise ErrMalformedDate.
func CanonicalDOB(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMalformedDate
	}
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("01/02/2006"), nil
		}
	}
	if canonicalDOB.MatchString(raw) {
		return raw, nil
	}
	return "", ErrMalformedDate
}
