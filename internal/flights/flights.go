package flights

import (
	"encoding/json"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WireTimeLayout is the fixed date-time format used by the flights endpoint.
const WireTimeLayout = "2006-01-02T15:04:05"

// InvalidDatePlaceholder is rendered whenever a wire date-time failed to parse.
const InvalidDatePlaceholder = "Error occurred while parsing date"

const displayTimeLayout = "06-01-02 15:04"

// Timestamp is the parse result of a wire date-time. A malformed wire value
// produces Valid == false rather than an error: the record survives, it just
// never matches a date filter and displays InvalidDatePlaceholder.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// ParseTimestamp parses a WireTimeLayout value in UTC.
func ParseTimestamp(s string) Timestamp {
	t, err := time.ParseInLocation(WireTimeLayout, s, time.UTC)
	if err != nil {
		return Timestamp{}
	}
	return Timestamp{Time: t, Valid: true}
}

// Display formats the timestamp as yy-MM-dd HH:mm, or the fixed placeholder
// when the wire value did not parse.
func (ts Timestamp) Display() string {
	if !ts.Valid {
		return InvalidDatePlaceholder
	}
	return ts.Time.Format(displayTimeLayout)
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Not even a JSON string. Treat the same as an unparseable date so
		// one bad field cannot fail the whole fetch.
		*ts = Timestamp{}
		return nil
	}
	*ts = ParseTimestamp(s)
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.Valid {
		return json.Marshal("")
	}
	return json.Marshal(ts.Time.Format(WireTimeLayout))
}

// Offer is one flight leg as served by the flights endpoint. An Offer is
// immutable once decoded; display strings are derived on demand.
type Offer struct {
	FlightName       string    `json:"flight_name"`
	DepartureStation string    `json:"dept_station"`
	ArrivalStation   string    `json:"arvl_station"`
	Stops            int       `json:"stops"`
	Price            float64   `json:"price"`
	Currency         string    `json:"currency"`
	DepartureTime    Timestamp `json:"departureTimeUtc"`
	ArrivalTime      Timestamp `json:"arrivalTimeUtc"`
}

func (o Offer) DepartureDisplay() string {
	return o.DepartureTime.Display()
}

func (o Offer) ArrivalDisplay() string {
	return o.ArrivalTime.Display()
}

var pricePrinter = message.NewPrinter(language.English)

// PriceDisplay renders the price with its currency code and grouped digits,
// e.g. "MYR 1,250.00".
func (o Offer) PriceDisplay() string {
	return pricePrinter.Sprintf("%s %.2f", o.Currency, o.Price)
}
