// Package controller owns the view state of the flight browser: the last
// good flight list, the current filter selection and the derived visible
// subset. All mutation happens on command methods guarded by one mutex; the
// only asynchronous work is the network fetch.
package controller

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mohae/deepcopy"

	"github.com/kwiyos/flightdeck/internal/filter"
	"github.com/kwiyos/flightdeck/internal/flightapi"
	"github.com/kwiyos/flightdeck/internal/flights"
)

// User-facing one-shot message texts.
const (
	FetchErrorMessage     = "Unable to retrieve flights, please try again later"
	DateRangeErrorMessage = "Select a valid date range"
)

// Phase is the controller lifecycle state.
type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Refreshing
)

func (p Phase) String() string {
	return [...]string{"Idle", "Loading", "Ready", "Refreshing"}[p]
}

// Notice is a one-shot user-facing message. The ID lets a feed client that
// reconnects mid-stream discard a notice it has already shown.
type Notice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ViewState is a derived, point-in-time copy of everything the rendering
// layer needs. It is recomputed on demand and never persisted.
type ViewState struct {
	Phase              Phase            `json:"phase"`
	AllFlights         []flights.Offer  `json:"all_flights"`
	VisibleFlights     []flights.Offer  `json:"visible_flights"`
	AirlineOptions     []string         `json:"airline_options"`
	Selection          filter.Selection `json:"selection"`
	IsLoading          bool             `json:"is_loading"`
	IsFilterPickerOpen bool             `json:"is_filter_picker_open"`
	LastError          string           `json:"last_error"`
}

type Controller struct {
	mu sync.Mutex

	source flightapi.Source
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	phase          Phase
	all            []flights.Offer
	visible        []flights.Offer
	airlineOptions []string
	selection      filter.Selection
	pickerOpen     bool
	lastError      string
	fetching       bool
	bootstrapped   bool
	closed         bool

	status  chan Notice
	detail  chan flights.Offer
	changed chan struct{}
}

func New(source flightapi.Source) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		source:  source,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		status:  make(chan Notice, 8),
		detail:  make(chan flights.Offer, 8),
		changed: make(chan struct{}, 1),
	}
}

// Load begins the initial fetch. Valid once, from Idle; the initial filter
// bounds are derived from the data of the first fetch that succeeds, so a
// failed first load leaves bootstrapping to a later refresh.
func (c *Controller) Load() {
	c.mu.Lock()
	if c.phase != Idle || c.fetching || c.closed {
		c.mu.Unlock()
		return
	}
	c.phase = Loading
	c.fetching = true
	c.mu.Unlock()
	c.notifyChanged()

	go c.runFetch()
}

// Refresh re-fetches the list. Only valid from Ready: a refresh while a
// fetch is already in flight is a no-op, never a second concurrent fetch.
// Once bootstrapped, date bounds are NOT re-derived; the current selection
// is re-applied.
func (c *Controller) Refresh() {
	c.mu.Lock()
	if c.phase != Ready || c.fetching || c.closed {
		c.mu.Unlock()
		return
	}
	c.phase = Refreshing
	c.fetching = true
	c.mu.Unlock()
	c.notifyChanged()

	go c.runFetch()
}

func (c *Controller) runFetch() {
	offers, err := c.source.FetchFlights(c.ctx)

	c.mu.Lock()
	if c.closed {
		// Torn down mid-fetch: discard the result entirely.
		c.mu.Unlock()
		return
	}
	c.fetching = false

	if err != nil {
		log.Printf("flight fetch failed: %v", err)
		// The previously displayed list, if any, stays visible.
		c.phase = Ready
		c.mu.Unlock()
		c.emitStatus(FetchErrorMessage)
		return
	}

	c.all = offers
	c.airlineOptions = filter.AirlineOptions(offers)
	if !c.bootstrapped {
		// The first successful fetch shows the list unfiltered and derives
		// the initial date bounds from the data itself. An empty list falls
		// back to the current time on both ends.
		c.visible = offers
		c.selection.Start, c.selection.End = filter.DepartureBounds(offers, c.now())
		c.bootstrapped = true
	} else {
		c.visible = filter.Apply(c.all, c.selection)
	}
	c.lastError = ""
	c.phase = Ready
	c.mu.Unlock()
	c.notifyChanged()
}

func (c *Controller) SelectAirline(name string) {
	c.mu.Lock()
	c.selection.Airline = name
	c.refilterLocked()
	c.mu.Unlock()
	c.notifyChanged()
}

func (c *Controller) ClearAirlineFilter() {
	c.SelectAirline("")
}

func (c *Controller) SelectPriceBracket(b filter.PriceBracket) {
	c.mu.Lock()
	c.selection.Bracket = b
	c.refilterLocked()
	c.mu.Unlock()
	c.notifyChanged()
}

func (c *Controller) ClearPriceFilter() {
	c.SelectPriceBracket(filter.AnyPrice)
}

func (c *Controller) OpenDatePicker() {
	c.mu.Lock()
	c.pickerOpen = true
	c.mu.Unlock()
	c.notifyChanged()
}

func (c *Controller) DismissDatePicker() {
	c.mu.Lock()
	c.pickerOpen = false
	c.mu.Unlock()
	c.notifyChanged()
}

// ConfirmDateRange applies a picked calendar-day range. Confirming with
// either endpoint unset, or with the start day after the end day, emits a
// validation notice and leaves the prior selection and the open picker
// untouched.
func (c *Controller) ConfirmDateRange(startDay, endDay time.Time) {
	if startDay.IsZero() || endDay.IsZero() {
		c.emitStatus(DateRangeErrorMessage)
		return
	}
	start, end := filter.DayRange(startDay, endDay)
	if start.After(end) {
		c.emitStatus(DateRangeErrorMessage)
		return
	}

	c.mu.Lock()
	c.selection.Start, c.selection.End = start, end
	c.refilterLocked()
	c.pickerOpen = false
	c.mu.Unlock()
	c.notifyChanged()
}

// SelectFlight emits a one-shot navigate-to-detail event for the offer.
func (c *Controller) SelectFlight(o flights.Offer) {
	select {
	case c.detail <- o:
	default:
		log.Printf("detail event dropped, no subscriber draining: %s", o.FlightName)
	}
}

func (c *Controller) refilterLocked() {
	c.visible = filter.Apply(c.all, c.selection)
}

func (c *Controller) emitStatus(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.lastError = text
	c.mu.Unlock()

	n := Notice{ID: uuid.NewString(), Text: text}
	select {
	case c.status <- n:
	default:
		log.Printf("status notice dropped, no subscriber draining: %s", text)
	}
	c.notifyChanged()
}

// RequeueStatus returns an undelivered notice to the queue so the next
// subscriber still receives it, keeping its original ID.
func (c *Controller) RequeueStatus(n Notice) {
	select {
	case c.status <- n:
	default:
		log.Printf("status notice dropped on requeue: %s", n.Text)
	}
}

// RequeueDetail returns an undelivered navigate-to-detail event to the queue.
func (c *Controller) RequeueDetail(o flights.Offer) {
	select {
	case c.detail <- o:
	default:
		log.Printf("detail event dropped on requeue: %s", o.FlightName)
	}
}

// Status is the single-subscriber channel of one-shot user messages. Each
// notice is delivered to exactly one reader exactly once.
func (c *Controller) Status() <-chan Notice {
	return c.status
}

// Detail is the single-subscriber channel of navigate-to-detail events.
func (c *Controller) Detail() <-chan flights.Offer {
	return c.detail
}

// Changed pulses after every state change. Sends coalesce: a slow reader
// sees at least one pulse for any burst of changes.
func (c *Controller) Changed() <-chan struct{} {
	return c.changed
}

// Snapshot returns a deep copy of the current view state. Callers can hold
// or mutate it freely without aliasing controller-owned slices.
func (c *Controller) Snapshot() ViewState {
	c.mu.Lock()
	vs := ViewState{
		Phase:              c.phase,
		AllFlights:         c.all,
		VisibleFlights:     c.visible,
		AirlineOptions:     c.airlineOptions,
		Selection:          c.selection,
		IsLoading:          c.phase == Loading || c.phase == Refreshing,
		IsFilterPickerOpen: c.pickerOpen,
		LastError:          c.lastError,
	}
	c.mu.Unlock()
	return deepcopy.Copy(vs).(ViewState)
}

// Close tears the controller down. Any in-flight fetch is cancelled and its
// result discarded; no state updates happen after Close.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

func (c *Controller) notifyChanged() {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}
