// Package filter holds the pure flight-list filtering logic: price bracket
// classification, the three-predicate visible-subset computation and the
// calendar-day range normalization applied to date picker selections.
package filter

import (
	"time"

	"github.com/kwiyos/flightdeck/internal/flights"
)

// PriceBracket is one of the non-overlapping price classification ranges.
type PriceBracket int

const (
	AnyPrice PriceBracket = iota
	Under200
	Between200And500
	Over500
)

func (b PriceBracket) String() string {
	switch b {
	case Under200:
		return "Under 200"
	case Between200And500:
		return "200 to 500"
	case Over500:
		return "Over 500"
	default:
		return "Any"
	}
}

// BracketOptions lists the selectable brackets in display order. AnyPrice is
// the cleared state, not an option.
func BracketOptions() []PriceBracket {
	return []PriceBracket{Under200, Between200And500, Over500}
}

// ClassifyPrice places a price into exactly one bracket. The order of the
// tests is what puts the shared boundary values 200 and 500 into the middle
// bracket.
func ClassifyPrice(price float64) PriceBracket {
	switch {
	case price < 200:
		return Under200
	case price <= 500:
		return Between200And500
	default:
		return Over500
	}
}

// Selection is the current set of user-chosen constraints. An empty Airline
// means no airline filter; AnyPrice means no price filter.
type Selection struct {
	Airline string       `json:"airline"`
	Start   time.Time    `json:"start"`
	End     time.Time    `json:"end"`
	Bracket PriceBracket `json:"bracket"`
}

// Apply computes the visible subset of offers: every predicate must pass.
// The relative order of the input is preserved.
func Apply(offers []flights.Offer, sel Selection) []flights.Offer {
	out := []flights.Offer{}
	for _, o := range offers {
		if matches(o, sel) {
			out = append(out, o)
		}
	}
	return out
}

func matches(o flights.Offer, sel Selection) bool {
	if sel.Airline != "" && o.FlightName != sel.Airline {
		return false
	}

	// Offers whose departure failed to parse never pass the date predicate.
	// The start boundary is exclusive; the end boundary is inclusive so that
	// a departure at exactly 23:59 of the picked end day still matches.
	dep := o.DepartureTime
	if !dep.Valid || !dep.Time.After(sel.Start) || dep.Time.After(sel.End) {
		return false
	}

	if sel.Bracket != AnyPrice && ClassifyPrice(o.Price) != sel.Bracket {
		return false
	}

	return true
}

// AirlineOptions returns the distinct flight names across the full list in
// first-seen order, regardless of any current filter.
func AirlineOptions(offers []flights.Offer) []string {
	seen := make(map[string]bool, len(offers))
	options := []string{}
	for _, o := range offers {
		if seen[o.FlightName] {
			continue
		}
		seen[o.FlightName] = true
		options = append(options, o.FlightName)
	}
	return options
}

// DepartureBounds returns the minimum and maximum valid departure times in
// the list. When no offer has a valid departure (including an empty list)
// both bounds are fallback.
func DepartureBounds(offers []flights.Offer, fallback time.Time) (time.Time, time.Time) {
	first, last := time.Time{}, time.Time{}
	for _, o := range offers {
		if !o.DepartureTime.Valid {
			continue
		}
		t := o.DepartureTime.Time
		if first.IsZero() || t.Before(first) {
			first = t
		}
		if last.IsZero() || t.After(last) {
			last = t
		}
	}
	if first.IsZero() {
		return fallback, fallback
	}
	return first, last
}

// DayRange converts a picked calendar-day range into filter boundaries: the
// effective start is midnight of the picked start day and the effective end
// is midnight of the day after the picked end day minus one minute, so the
// whole end day up to 23:59 is inside the range.
func DayRange(startDay, endDay time.Time) (time.Time, time.Time) {
	start := truncateToDay(startDay)
	end := truncateToDay(endDay).AddDate(0, 0, 1).Add(-time.Minute)
	return start, end
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
