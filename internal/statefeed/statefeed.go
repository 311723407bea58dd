// Package statefeed exposes the controller to a rendering client over a
// WebSocket: view-state snapshots are pushed on every change and one-shot
// events are forwarded as their own messages. A single client may be
// connected at a time so one-shot delivery stays single-consumer end to end.
package statefeed

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kwiyos/flightdeck/internal/controller"
	"github.com/kwiyos/flightdeck/internal/filter"
	"github.com/kwiyos/flightdeck/internal/flights"
	"github.com/kwiyos/flightdeck/pkg/util"
)

type config struct {
	Feed struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"feed"`
}

// Message is a server-to-client feed frame. Exactly one payload field is set
// according to Type: "state", "notice" or "detail".
type Message struct {
	Type   string                `json:"type"`
	State  *controller.ViewState `json:"state,omitempty"`
	Notice *controller.Notice    `json:"notice,omitempty"`
	Offer  *flights.Offer        `json:"offer,omitempty"`
}

// Command is a client-to-server frame carrying one UI action.
type Command struct {
	Type    string `json:"type"`
	Airline string `json:"airline,omitempty"`
	Bracket int    `json:"bracket,omitempty"`
	Start   string `json:"start,omitempty"` // calendar day, 2006-01-02
	End     string `json:"end,omitempty"`
	Index   int    `json:"index,omitempty"` // index into visible_flights
}

const dayLayout = "2006-01-02"

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type Server struct {
	ctrl *controller.Controller
	srv  *http.Server

	mu     sync.Mutex
	active bool
}

// New builds the feed server from the feed section of the configuration file.
func New(cfgPath string, ctrl *controller.Controller) (*Server, error) {
	cfg, err := util.LoadConfig[config](cfgPath)
	if err != nil {
		return nil, fmt.Errorf("error reading configuration file: %w", err)
	}
	addr := cfg.Feed.ListenAddr
	if addr == "" {
		addr = ":8091"
	}

	s := &Server{ctrl: ctrl}
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", s.feedHandler)
	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s, nil
}

// Start begins serving in the background and returns the underlying server
// so the caller can shut it down when desired.
func (s *Server) Start() *http.Server {
	go func() {
		log.Printf("statefeed: listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("statefeed: ListenAndServe error: %v", err)
		}
	}()
	return s.srv
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler returns the feed HTTP handler, used directly by tests.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.feedHandler)
}

func (s *Server) feedHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		http.Error(w, "a feed subscriber is already connected", http.StatusConflict)
		return
	}
	s.active = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
	}()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("statefeed: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	done := make(chan struct{})
	go s.writeLoop(conn, done)

	// Read loop: dispatch UI commands until the client goes away.
	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("statefeed: read error: %v", err)
			}
			close(done)
			return
		}
		s.dispatch(cmd)
	}
}

// writeLoop owns all writes on the connection: the initial snapshot, a fresh
// snapshot per change pulse, and forwarded one-shot events.
func (s *Server) writeLoop(conn *websocket.Conn, done <-chan struct{}) {
	snapshot := func() error {
		vs := s.ctrl.Snapshot()
		return util.SendJSON(conn, Message{Type: "state", State: &vs})
	}
	if err := snapshot(); err != nil {
		log.Printf("statefeed: write error: %v", err)
		return
	}

	for {
		// Drain done before the event select so a stale writer does not keep
		// consuming events after the client has gone.
		select {
		case <-done:
			return
		default:
		}

		var err error
		select {
		case <-done:
			return
		case <-s.ctrl.Changed():
			err = snapshot()
		case n := <-s.ctrl.Status():
			// A one-shot that cannot be written goes back on the queue so
			// the next subscriber still sees it.
			if err = util.SendJSON(conn, Message{Type: "notice", Notice: &n}); err != nil {
				s.ctrl.RequeueStatus(n)
			}
		case o := <-s.ctrl.Detail():
			if err = util.SendJSON(conn, Message{Type: "detail", Offer: &o}); err != nil {
				s.ctrl.RequeueDetail(o)
			}
		}
		if err != nil {
			log.Printf("statefeed: write error: %v", err)
			return
		}
	}
}

func (s *Server) dispatch(cmd Command) {
	switch cmd.Type {
	case "refresh":
		s.ctrl.Refresh()
	case "select_airline":
		s.ctrl.SelectAirline(cmd.Airline)
	case "clear_airline":
		s.ctrl.ClearAirlineFilter()
	case "select_bracket":
		s.ctrl.SelectPriceBracket(filterBracket(cmd.Bracket))
	case "clear_bracket":
		s.ctrl.ClearPriceFilter()
	case "open_picker":
		s.ctrl.OpenDatePicker()
	case "dismiss_picker":
		s.ctrl.DismissDatePicker()
	case "confirm_range":
		// Unparseable or absent endpoints come through as zero times and the
		// controller answers with its validation notice.
		start, _ := time.Parse(dayLayout, cmd.Start)
		end, _ := time.Parse(dayLayout, cmd.End)
		s.ctrl.ConfirmDateRange(start, end)
	case "select_flight":
		vs := s.ctrl.Snapshot()
		if cmd.Index >= 0 && cmd.Index < len(vs.VisibleFlights) {
			s.ctrl.SelectFlight(vs.VisibleFlights[cmd.Index])
		}
	default:
		log.Printf("statefeed: unknown command type %q", cmd.Type)
	}
}

func filterBracket(n int) filter.PriceBracket {
	if n < int(filter.AnyPrice) || n > int(filter.Over500) {
		return filter.AnyPrice
	}
	return filter.PriceBracket(n)
}
