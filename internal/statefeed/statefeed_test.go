package statefeed

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwiyos/flightdeck/internal/controller"
	"github.com/kwiyos/flightdeck/internal/filter"
	"github.com/kwiyos/flightdeck/internal/flights"
)

type stubSource struct {
	offers []flights.Offer
}

func (s stubSource) FetchFlights(ctx context.Context) ([]flights.Offer, error) {
	return s.offers, nil
}

func sampleOffers() []flights.Offer {
	return []flights.Offer{
		{FlightName: "AK1", Price: 150, Currency: "MYR", DepartureTime: flights.ParseTimestamp("2024-01-10T08:00:00")},
		{FlightName: "AK2", Price: 550, Currency: "MYR", DepartureTime: flights.ParseTimestamp("2024-01-12T08:00:00")},
	}
}

func readyController(t *testing.T) *controller.Controller {
	t.Helper()
	c := controller.New(stubSource{offers: sampleOffers()})
	t.Cleanup(c.Close)
	c.Load()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Snapshot().Phase == controller.Ready {
			return c
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("controller never became ready")
	return nil
}

func dialFeed(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/feed"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestFeedSendsSnapshotOnConnect(t *testing.T) {
	s := &Server{ctrl: readyController(t)}
	conn := dialFeed(t, s)

	msg := readFrame(t, conn)
	require.Equal(t, "state", msg.Type)
	require.NotNil(t, msg.State)
	assert.Equal(t, []string{"AK1", "AK2"}, msg.State.AirlineOptions)
	assert.Len(t, msg.State.VisibleFlights, 2)
}

func TestFeedRefusesSecondSubscriber(t *testing.T) {
	s := &Server{ctrl: readyController(t)}
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/feed"
	first, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer first.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 409, resp.StatusCode)
}

func TestFeedDispatchesCommands(t *testing.T) {
	s := &Server{ctrl: readyController(t)}
	conn := dialFeed(t, s)

	readFrame(t, conn) // initial snapshot

	require.NoError(t, conn.WriteJSON(Command{Type: "select_bracket", Bracket: int(filter.Over500)}))

	// Skip any interleaved frames until the filtered snapshot arrives.
	for i := 0; i < 5; i++ {
		msg := readFrame(t, conn)
		if msg.Type == "state" && len(msg.State.VisibleFlights) == 1 {
			assert.Equal(t, "AK2", msg.State.VisibleFlights[0].FlightName)
			return
		}
	}
	t.Fatal("never received the filtered snapshot")
}

func TestFeedForwardsValidationNotice(t *testing.T) {
	s := &Server{ctrl: readyController(t)}
	conn := dialFeed(t, s)

	readFrame(t, conn) // initial snapshot

	require.NoError(t, conn.WriteJSON(Command{Type: "confirm_range", Start: "", End: "2024-01-12"}))

	for i := 0; i < 5; i++ {
		msg := readFrame(t, conn)
		if msg.Type == "notice" {
			assert.Equal(t, controller.DateRangeErrorMessage, msg.Notice.Text)
			assert.NotEmpty(t, msg.Notice.ID)
			return
		}
	}
	t.Fatal("never received the validation notice")
}

func TestFeedNoticeSurvivesSubscriberChurn(t *testing.T) {
	ctrl := readyController(t)
	s := &Server{ctrl: ctrl}

	first := dialFeed(t, s)
	readFrame(t, first) // initial snapshot
	first.Close()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return !s.active
	}, 2*time.Second, 10*time.Millisecond, "feed slot never released")

	// Emitted while the old writer may still be winding down; the notice
	// must reach the next subscriber, not die with the dead connection.
	ctrl.ConfirmDateRange(time.Time{}, time.Time{})

	second := dialFeed(t, s)
	for i := 0; i < 5; i++ {
		msg := readFrame(t, second)
		if msg.Type == "notice" {
			assert.Equal(t, controller.DateRangeErrorMessage, msg.Notice.Text)
			return
		}
	}
	t.Fatal("notice lost across subscriber churn")
}
